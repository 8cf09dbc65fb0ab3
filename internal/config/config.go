package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Session store kinds
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	BotToken   string
	BackendURL string

	SessionStore string // "file" or "postgres"
	SessionsDir  string // file store only

	Database DatabaseConfig
	Speech   SpeechConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// SpeechConfig holds paths to the external speech binaries
type SpeechConfig struct {
	FFmpegPath   string
	WhisperBin   string
	WhisperModel string
	Language     string
	TTSCommand   string
	TTSVoice     string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		BackendURL:   os.Getenv("BACKEND_URL"),
		SessionStore: getEnv("SESSION_STORE", StoreFile),
		SessionsDir:  getEnv("SESSIONS_DIR", "users"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "dreambot"),
			User:     getEnv("DB_USER", "dreambot"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Speech: SpeechConfig{
			FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
			WhisperBin:   getEnv("WHISPER_BIN", "whisper-cli"),
			WhisperModel: getEnv("WHISPER_MODEL", "models/ggml-medium.bin"),
			Language:     getEnv("SPEECH_LANGUAGE", "ru"),
			TTSCommand:   getEnv("TTS_COMMAND", "edge-tts"),
			TTSVoice:     getEnv("TTS_VOICE", "ru-RU-SvetlanaNeural"),
		},
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}

	switch cfg.SessionStore {
	case StoreFile:
	case StorePostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required when SESSION_STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("SESSION_STORE must be %q or %q, got %q", StoreFile, StorePostgres, cfg.SessionStore)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
