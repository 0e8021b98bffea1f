package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

type Options struct {
	FilePath   string
	Production bool
	Level      string // debug, info, warn, error
}

type ZapLogger struct {
	logger *zap.Logger
}

// redactedKeys never reach the log files as-is. Notifications carry customer
// e-mail addresses and the provider signature.
var redactedKeys = map[string]bool{
	"email":         true,
	"payer_email":   true,
	"signature_key": true,
	"server_key":    true,
	"authorization": true,
}

func NewZapLogger(opts Options) *ZapLogger {
	rotator := &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    20, // Megabytes
		MaxBackups: 10,
		MaxAge:     90, // Days, covers the refund window
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	// the file keeps the ledger audit trail, so it never drops below info
	fileCore := zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), zap.InfoLevel)

	var consoleEncoder zapcore.Encoder
	if opts.Production {
		consoleEncoder = jsonEncoder
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), parseLevel(opts.Level))

	l := zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddCallerSkip(1)).
		With(zap.String("service", "leadflow-be"))

	return &ZapLogger{logger: l}
}

// NewNopLogger discards everything. Used by tests and tools.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func newWithCore(core zapcore.Core) *ZapLogger {
	return &ZapLogger{logger: zap.New(core)}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.logger.Debug(message, fields(module, details)...)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.logger.Info(message, fields(module, details)...)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.logger.Warn(message, fields(module, details)...)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.logger.Error(message, fields(module, details)...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func fields(module string, details map[string]interface{}) []zap.Field {
	clean := make(map[string]interface{}, len(details))
	for k, v := range details {
		if redactedKeys[strings.ToLower(k)] {
			if s, ok := v.(string); ok {
				v = mask(s)
			} else {
				v = "***"
			}
		}
		clean[k] = v
	}
	return []zap.Field{zap.String("module", module), zap.Any("details", clean)}
}

// mask keeps the first character and the e-mail domain: "ana@example.com" becomes
// "a***@example.com".
func mask(s string) string {
	if s == "" {
		return s
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return s[:1] + "***"
	}
	return s[:1] + "***" + s[at:]
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.DebugLevel
	}
}
