package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/1mt4y/travelbuddy/pkg/config"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
	config *config.LoggingConfig
}

// Fields represents a map of fields for structured logging
type Fields map[string]interface{}

// New creates a new logger instance
func New(cfg *config.LoggingConfig) (*Logger, error) {
	logger := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	// Set format
	switch cfg.Format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z",
		})
	}

	// Set output
	var output io.Writer
	switch cfg.Output {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}

		output = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	case "discard":
		output = io.Discard
	default:
		output = os.Stdout
	}

	logger.SetOutput(output)

	return &Logger{
		Logger: logger,
		config: cfg,
	}, nil
}

// WithFields adds fields to log entry
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithField adds a single field to log entry
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError adds an error field to log entry
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// Request logging helpers
func (l *Logger) LogRequest(method, path, userAgent, clientIP string, statusCode int, duration int64) {
	l.WithFields(Fields{
		"method":      method,
		"path":        path,
		"user_agent":  userAgent,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": duration,
		"type":        "request",
	}).Info("HTTP request")
}

func (l *Logger) LogAuth(userID, email, action string, success bool) {
	entry := l.WithFields(Fields{
		"user_id": userID,
		"email":   email,
		"action":  action,
		"success": success,
		"type":    "auth",
	})

	if success {
		entry.Info("Authentication event")
	} else {
		entry.Warn("Authentication failed")
	}
}

func (l *Logger) LogTrip(tripID, userID, action string) {
	l.WithFields(Fields{
		"trip_id": tripID,
		"user_id": userID,
		"action":  action,
		"type":    "trip",
	}).Info("Trip event")
}

func (l *Logger) LogJoinRequest(requestID, tripID, userID, action string) {
	l.WithFields(Fields{
		"request_id": requestID,
		"trip_id":    tripID,
		"user_id":    userID,
		"action":     action,
		"type":       "join_request",
	}).Info("Join request event")
}

func (l *Logger) LogMessage(messageID, senderID, receiverID string) {
	l.WithFields(Fields{
		"message_id":  messageID,
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"type":        "message",
	}).Debug("Message sent")
}

func (l *Logger) LogSecurity(event string, userID string, ip string, details map[string]interface{}) {
	fields := Fields{
		"event":   event,
		"user_id": userID,
		"ip":      ip,
		"type":    "security",
	}

	for k, v := range details {
		fields[k] = v
	}

	l.WithFields(fields).Warn("Security event")
}

func (l *Logger) LogSystem(component string, action string, success bool, details map[string]interface{}) {
	fields := Fields{
		"component": component,
		"action":    action,
		"success":   success,
		"type":      "system",
	}

	for k, v := range details {
		fields[k] = v
	}

	entry := l.WithFields(fields)
	if success {
		entry.Info("System event")
	} else {
		entry.Error("System event failed")
	}
}

// Performance logging
func (l *Logger) LogPerformance(operation string, duration int64, details map[string]interface{}) {
	fields := Fields{
		"operation":   operation,
		"duration_ms": duration,
		"type":        "performance",
	}

	for k, v := range details {
		fields[k] = v
	}

	entry := l.WithFields(fields)

	switch {
	case duration > 5000:
		entry.Error("Slow operation detected")
	case duration > 1000:
		entry.Warn("Operation took longer than expected")
	default:
		entry.Debug("Operation completed")
	}
}

// Global logger instance
var defaultLogger *Logger

// Init initializes the default logger
func Init(cfg *config.LoggingConfig) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	return defaultLogger
}
