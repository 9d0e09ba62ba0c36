package internal

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config defines the client environment variables. Values stored in the
// settings record (display name, endpoint, demo flag) act as defaults
// here and are overwritten by an explicit settings save.
type Config struct {
	Endpoint    string `env:"CHAT_ENDPOINT,default=ws://localhost:8080/ws"`
	RestBaseURL string `env:"CHAT_REST_URL,default=http://localhost:8080"`
	DisplayName string `env:"CHAT_DISPLAY_NAME,default=anonymous"`
	DemoMode    bool   `env:"CHAT_DEMO_MODE,default=false"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	QueueSize      int           `env:"QUEUE_SIZE,default=256"`
	BackoffBase    time.Duration `env:"BACKOFF_BASE,default=500ms"`
	BackoffCeiling time.Duration `env:"BACKOFF_CEILING,default=30s"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT,default=10s"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=.chat-sync"`

	UploadMaxImageBytes int64 `env:"UPLOAD_MAX_IMAGE_BYTES,default=10485760"`
	UploadMaxAudioBytes int64 `env:"UPLOAD_MAX_AUDIO_BYTES,default=26214400"`
	UploadMaxVideoBytes int64 `env:"UPLOAD_MAX_VIDEO_BYTES,default=104857600"`
	UploadMaxFileBytes  int64 `env:"UPLOAD_MAX_FILE_BYTES,default=52428800"`

	DemoPeerName string        `env:"DEMO_PEER_NAME,default=Sam"`
	DemoReplyMin time.Duration `env:"DEMO_REPLY_MIN,default=600ms"`
	DemoReplyMax time.Duration `env:"DEMO_REPLY_MAX,default=2500ms"`
	RestartPause time.Duration `env:"RESTART_PAUSE,default=200ms"`
}

// NewLogger builds the process logger from a textual level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
