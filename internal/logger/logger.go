package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields carries structured context attached to a log entry.
type Fields = map[string]interface{}

var Logger *logrus.Logger

// relay receives error messages for forwarding to an operational sink
// (the log channel). Installed by the bot once it is online.
var relay atomic.Value // func(string)

// Init configures the global logger with rotating file sinks split by severity.
func Init(logLevel string) error {
	Logger = logrus.New()

	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	rotated := func(name string) *lumberjack.Logger {
		return &lumberjack.Logger{
			Filename:   filepath.Join(logDir, name),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	Logger.AddHook(&severityHook{
		errorSink: rotated("error.log"),
		botSink:   rotated("bot.log"),
	})

	Logger.SetOutput(os.Stdout)

	return nil
}

// SetErrorRelay installs a callback invoked with every error-level message.
// Used to mirror internal errors into the operational log channel.
func SetErrorRelay(fn func(msg string)) {
	relay.Store(fn)
}

// severityHook routes error-level entries to a dedicated file so operational
// problems survive normal-traffic rotation, and mirrors them to the relay.
type severityHook struct {
	errorSink io.Writer
	botSink   io.Writer
}

func (h *severityHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}

	switch entry.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		if fn, ok := relay.Load().(func(string)); ok && fn != nil {
			fn(entry.Message)
		}
		_, err = h.errorSink.Write([]byte(line))
	default:
		_, err = h.botSink.Write([]byte(line))
	}

	return err
}

func (h *severityHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func Error(msg string, fields Fields) {
	if Logger != nil {
		Logger.WithFields(fields).Error(msg)
	}
}

func Warn(msg string, fields Fields) {
	if Logger != nil {
		Logger.WithFields(fields).Warn(msg)
	}
}

func Info(msg string, fields Fields) {
	if Logger != nil {
		Logger.WithFields(fields).Info(msg)
	}
}

func Debug(msg string, fields Fields) {
	if Logger != nil {
		Logger.WithFields(fields).Debug(msg)
	}
}

func ErrorMsg(msg string) { Error(msg, nil) }
func WarnMsg(msg string)  { Warn(msg, nil) }
func InfoMsg(msg string)  { Info(msg, nil) }
func DebugMsg(msg string) { Debug(msg, nil) }
