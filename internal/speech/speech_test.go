package speech

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeStub creates an executable shell script standing in for an
// external binary.
func writeStub(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestTranscriber_Transcribe(t *testing.T) {
	// ffmpeg stub: args are -y -i <ogg> -ac 1 -ar 16000 <wav>
	ffmpeg := writeStub(t, "ffmpeg", `touch "$8"`)
	// whisper stub: args are -m <model> -f <wav> --language ru --output-txt
	whisper := writeStub(t, "whisper", `printf ' мне снился лес \n' > "$4.txt"`)

	tr := NewTranscriber(ffmpeg, whisper, "model.bin", "ru", zap.NewNop())

	text, err := tr.Transcribe(strings.NewReader("fake-ogg-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "мне снился лес", text)
}

func TestTranscriber_NoOutputMeansEmpty(t *testing.T) {
	ffmpeg := writeStub(t, "ffmpeg", `touch "$8"`)
	whisper := writeStub(t, "whisper", `exit 0`) // recognizes nothing

	tr := NewTranscriber(ffmpeg, whisper, "model.bin", "ru", zap.NewNop())

	text, err := tr.Transcribe(strings.NewReader("fake-ogg-bytes"))

	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscriber_FfmpegFailure(t *testing.T) {
	ffmpeg := writeStub(t, "ffmpeg", `exit 1`)
	whisper := writeStub(t, "whisper", `exit 0`)

	tr := NewTranscriber(ffmpeg, whisper, "model.bin", "ru", zap.NewNop())

	text, err := tr.Transcribe(strings.NewReader("fake-ogg-bytes"))

	assert.Error(t, err)
	assert.Empty(t, text)
}

func TestSynthesizer_Synthesize(t *testing.T) {
	// edge-tts stub: args are --text <text> --voice <voice> --write-media <path>
	tts := writeStub(t, "edge-tts", `printf 'mp3-bytes' > "$6"`)

	s := NewSynthesizer(tts, "ru-RU-SvetlanaNeural", zap.NewNop())

	path, err := s.Synthesize("Полёт во сне — к свободе")

	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mp3-bytes", string(data))
}

func TestSynthesizer_CommandFailure(t *testing.T) {
	tts := writeStub(t, "edge-tts", `exit 1`)

	s := NewSynthesizer(tts, "ru-RU-SvetlanaNeural", zap.NewNop())

	path, err := s.Synthesize("текст")

	assert.Error(t, err)
	assert.Empty(t, path)
}
