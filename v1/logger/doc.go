// Package logger is the structured logger used across dbkit.
//
// It wraps zap with a small call shape, Info/Debug/Warn/Error/Fatal(msg, err, fields...),
// so that the other packages can depend on a narrow interface instead of zap itself:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Info, ServiceName: "inventory"})
//	log.Info("manager initialised", nil, map[string]interface{}{"default": "sqlite"})
//
// Entries are JSON with ISO8601 timestamps, the caller, the process id and the
// configured service name. Tests usually pass logger.NewNop() or wrap a
// zaptest/observer core with logger.Wrap to assert on emitted entries.
package logger
