package logger

import "go.uber.org/zap"

// convertToZapFields turns the error and the field maps into zap fields.
// Later maps win when keys collide.
func (l *Logger) convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	var zapFields []zap.Field
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}

	merged := make(map[string]interface{})
	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			merged[key] = value
		}
	}
	for key, value := range merged {
		zapFields = append(zapFields, zap.Any(key, value))
	}
	return zapFields
}

// Info logs progress and successful operations.
//
// Example:
//
//	log.Info("driver connected", nil, map[string]interface{}{
//	    "driver": "sqlite",
//	    "file":   "/var/lib/app/data.db",
//	})
func (l *Logger) Info(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, fields...)...)
}

// Debug logs verbose diagnostics such as individual statements.
func (l *Logger) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, fields...)...)
}

// Warn logs conditions that are not failures but deserve attention, such as a
// backend falling back to the embedded store.
func (l *Logger) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, fields...)...)
}

// Error logs a failed operation that the caller recovered from.
//
// Example:
//
//	if err := drv.Backup(ctx, path); err != nil {
//	    log.Error("backup failed", err, map[string]interface{}{
//	        "driver": drv.Name(),
//	        "path":   path,
//	    })
//	}
func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, fields...)...)
}

// Fatal logs and exits the process with status 1.
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Fatal(msg, l.convertToZapFields(err, fields...)...)
}
