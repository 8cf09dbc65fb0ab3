package speech

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Transcriber converts voice messages to text by shelling out to ffmpeg
// (ogg → 16kHz mono wav) and whisper-cli. An empty transcript means
// recognition failed, not an error.
type Transcriber struct {
	ffmpegPath   string
	whisperBin   string
	whisperModel string
	language     string
	logger       *zap.Logger
}

// NewTranscriber creates a transcriber for the configured binaries
func NewTranscriber(ffmpegPath, whisperBin, whisperModel, language string, logger *zap.Logger) *Transcriber {
	return &Transcriber{
		ffmpegPath:   ffmpegPath,
		whisperBin:   whisperBin,
		whisperModel: whisperModel,
		language:     language,
		logger:       logger,
	}
}

// Transcribe runs the audio through ffmpeg and whisper and returns the
// recognized text, or "" when nothing was recognized.
func (t *Transcriber) Transcribe(audio io.Reader) (string, error) {
	ogg, err := os.CreateTemp("", "voice-*.ogg")
	if err != nil {
		return "", fmt.Errorf("create temp audio: %w", err)
	}
	defer os.Remove(ogg.Name())

	if _, err := io.Copy(ogg, audio); err != nil {
		ogg.Close()
		return "", fmt.Errorf("write temp audio: %w", err)
	}
	ogg.Close()

	wav := strings.TrimSuffix(ogg.Name(), ".ogg") + ".wav"
	defer os.Remove(wav)

	convert := exec.Command(t.ffmpegPath, "-y", "-i", ogg.Name(), "-ac", "1", "-ar", "16000", wav)
	if out, err := convert.CombinedOutput(); err != nil {
		t.logger.Warn("ffmpeg conversion failed",
			zap.Error(err),
			zap.ByteString("output", out),
		)
		return "", fmt.Errorf("convert audio: %w", err)
	}

	recognize := exec.Command(t.whisperBin,
		"-m", t.whisperModel,
		"-f", wav,
		"--language", t.language,
		"--output-txt",
	)
	if out, err := recognize.CombinedOutput(); err != nil {
		t.logger.Warn("whisper recognition failed",
			zap.Error(err),
			zap.ByteString("output", out),
		)
		return "", fmt.Errorf("recognize audio: %w", err)
	}

	txt := wav + ".txt"
	defer os.Remove(txt)

	data, err := os.ReadFile(txt)
	if err != nil {
		// whisper produced no output file: nothing was recognized
		return "", nil
	}
	return strings.TrimSpace(string(data)), nil
}
