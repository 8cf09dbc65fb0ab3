package speech

import (
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// Synthesizer turns reply text into an audio file via an edge-tts style
// command-line tool.
type Synthesizer struct {
	command string
	voice   string
	logger  *zap.Logger
}

// NewSynthesizer creates a synthesizer using the given CLI and voice id
// (e.g. "ru-RU-SvetlanaNeural")
func NewSynthesizer(command, voice string, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		command: command,
		voice:   voice,
		logger:  logger,
	}
}

// Synthesize generates an mp3 for the text and returns its path. The
// caller owns the file and removes it after sending.
func (s *Synthesizer) Synthesize(text string) (string, error) {
	out, err := os.CreateTemp("", "tts-*.mp3")
	if err != nil {
		return "", fmt.Errorf("create temp audio: %w", err)
	}
	out.Close()

	cmd := exec.Command(s.command,
		"--text", text,
		"--voice", s.voice,
		"--write-media", out.Name(),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.Remove(out.Name())
		s.logger.Warn("Speech synthesis failed",
			zap.Error(err),
			zap.ByteString("output", output),
		)
		return "", fmt.Errorf("synthesize speech: %w", err)
	}

	return out.Name(), nil
}
