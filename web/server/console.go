package server

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/df07/go-bvh-tracer/pkg/logging"
)

// ConsoleMessage is a log line forwarded to the browser console
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
}

// consoleWriter turns encoded log lines into console messages. Lines are
// dropped when the channel is full so logging never blocks a render.
type consoleWriter struct {
	consoleChan chan<- ConsoleMessage
}

func (w consoleWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	level, message, found := strings.Cut(line, "\t")
	if !found {
		level, message = "info", line
	}

	select {
	case w.consoleChan <- ConsoleMessage{Message: message, Timestamp: time.Now(), Level: level}:
	default:
	}
	return len(p), nil
}

func (w consoleWriter) Sync() error { return nil }

// NewConsoleLogger returns a logger that writes to base and also forwards
// info and above to consoleChan
func NewConsoleLogger(base *zap.SugaredLogger, renderID string, consoleChan chan<- ConsoleMessage) *zap.SugaredLogger {
	encoderConfig := logging.NewEncoderConfig()
	encoderConfig.TimeKey = zapcore.OmitKey
	encoderConfig.CallerKey = zapcore.OmitKey
	encoderConfig.NameKey = zapcore.OmitKey
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	console := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), consoleWriter{consoleChan: consoleChan}, zapcore.InfoLevel)
	return base.Desugar().
		WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core { return zapcore.NewTee(core, console) })).
		Sugar().
		With("render", renderID)
}
