package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.Logger behind the (msg, err, fields) call shape that every
// dbkit package accepts through its own narrow Logger interface.
type Logger struct {
	// Zap is exposed for callers that need zap-specific functionality.
	Zap *zap.Logger
}

// NewLoggerClient builds a JSON logger writing to stderr with ISO8601 timestamps,
// caller information and the process id and service name as initial fields.
//
// A broken zap configuration is a programming error, so it terminates the process.
func NewLoggerClient(cfg Config) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}

	logger, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}

	return &Logger{Zap: logger}
}

// NewNop returns a Logger that discards everything. Packages fall back to it
// when no logger is supplied.
func NewNop() *Logger {
	return &Logger{Zap: zap.NewNop()}
}

// Wrap adapts an existing zap.Logger, for example one built with zaptest/observer.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{Zap: z.WithOptions(zap.AddCallerSkip(1))}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
