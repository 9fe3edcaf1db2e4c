package log

// Structured logging for the snapshot service
// Console logger is available from process start, file sink is added by Setup
// Helpers keep call sites short: LogInfo, LogSuccess, LogError, LogWarn, LogDebug

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger        *zap.Logger
	consoleLogger *zap.Logger
	level         = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	setupMu       sync.Mutex
)

// Options configures the file sink.
type Options struct {
	Dir   string // directory for app.log, empty disables the file sink
	Level string // debug, info, warn, error
}

func init() {
	consoleLogger = newConsoleLogger()
	Logger = consoleLogger
}

func newConsoleLogger() *zap.Logger {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    colorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

// Setup sets the level and tees the console output into <dir>/app.log.
func Setup(opts Options) error {
	setupMu.Lock()
	defer setupMu.Unlock()

	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(opts.Level)))); err != nil && opts.Level != "" {
		return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	if opts.Dir == "" {
		Logger = consoleLogger
		return nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	fileConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	writer, err := newTruncatingWriter(filepath.Join(opts.Dir, "app.log"))
	if err != nil {
		return err
	}

	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), writer, level)
	Logger = zap.New(zapcore.NewTee(consoleLogger.Core(), fileCore))
	return nil
}

// Sync flushes buffered entries.
func Sync() {
	_ = Logger.Sync()
}

// GenerateRequestID returns a fresh id used to correlate request/response log lines.
func GenerateRequestID() string {
	return uuid.NewString()
}

// RequestLogger returns a child logger carrying request_id.
func RequestLogger(requestID string) *zap.Logger {
	return Logger.With(zap.String("request_id", requestID))
}

// LogRequest records an outbound or inbound request at debug level.
func LogRequest(requestID, method, endpoint string, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	}, fields...)
	Logger.Debug("request", allFields...)
}

// LogResponse records a completed request; non-2xx statuses are logged as warnings.
func LogResponse(requestID string, statusCode int, durationMs int64, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", durationMs),
	}, fields...)

	if statusCode >= 200 && statusCode < 300 {
		Logger.Debug("response", allFields...)
		return
	}
	Logger.Warn("response", allFields...)
}

func LogInfo(message string, fields ...zap.Field) {
	Logger.Info(message, fields...)
}

// LogSuccess logs at info level with a check mark prefix.
func LogSuccess(message string, fields ...zap.Field) {
	Logger.Info("✓ "+message, fields...)
}

// LogError logs at error level with a cross prefix.
func LogError(message string, fields ...zap.Field) {
	Logger.Error("✗ "+message, fields...)
}

func LogWarn(message string, fields ...zap.Field) {
	Logger.Warn(message, fields...)
}

func LogDebug(message string, fields ...zap.Field) {
	Logger.Debug(message, fields...)
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

func colorLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case zapcore.DebugLevel:
		enc.AppendString(colorCyan + "DEBUG" + colorReset)
	case zapcore.InfoLevel:
		enc.AppendString(colorGreen + "INFO" + colorReset)
	case zapcore.WarnLevel:
		enc.AppendString(colorYellow + "WARN" + colorReset)
	case zapcore.ErrorLevel, zapcore.FatalLevel, zapcore.PanicLevel:
		enc.AppendString(colorRed + l.CapitalString() + colorReset)
	default:
		enc.AppendString(colorWhite + l.CapitalString() + colorReset)
	}
}
