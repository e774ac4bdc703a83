package logger

// Log levels understood by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config holds the logger settings.
type Config struct {
	// Level is one of debug, info, warning or error. Anything else means info.
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL"`

	// ServiceName is attached to every entry as the "service" field.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"dbkit"`
}
