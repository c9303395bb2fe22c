package logging

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hardstop/hardstop/internal/models"
)

const levelFatal = "FATAL"
const levelWarn = "WARN"

// writeLog is the unified internal logging function that handles all output
// It formats the message with optional fields and routes to appropriate stream:
// - DEBUG/INFO/WARN: the standard library's default logger (via
//   log.Println), which writes to stderr with its own date prefix
// - ERROR/FATAL: stderr (via fmt.Fprintf)
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	timestamp := fmt.Sprintf("[%s]", GetTimestamp())
	logMsg := fmt.Sprintf("%s [%s] %s: %s", timestamp, level, l.name, msg)

	// Add structured fields if present
	if len(fields) > 0 {
		logMsg += " |"
		for k, v := range fields {
			logMsg += fmt.Sprintf(" %s=%v", k, v)
		}
	}

	// Route output based on severity level
	// ERROR and FATAL are written to stderr directly
	// All other levels (DEBUG/INFO/WARN) go through log.Println
	if level == strError || level == levelFatal {
		fmt.Fprintf(os.Stderr, "%s\n", logMsg)
	} else {
		log.Println(logMsg)
	}

	l.mirrorToRecorder(level, msg, fields)
}

// mirrorToRecorder forwards a WARN call to the attached RunRecorder's
// warnings and an ERROR/FATAL call to its errors, so the operator's
// RunRecord carries the same diagnostic the log line just reported. A
// no-op when WithRecorder was never called on this logger.
func (l *Logger) mirrorToRecorder(level, msg string, fields map[string]interface{}) {
	if l.recorder == nil {
		return
	}
	switch level {
	case levelWarn:
		l.recorder.RecordWarning(models.Warning{Kind: l.name, Message: msg, ItemID: stringFieldValue(fields, "item_id")})
	case strError, levelFatal:
		l.recorder.RecordError(errors.New(msg))
	}
}

func stringFieldValue(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// logf is the internal logging function for formatted messages
func (l *Logger) logf(level, msg string, args ...interface{}) {
	formattedMsg := fmt.Sprintf(msg, args...)

	// Extract context fields if available and merge with logger fields
	contextFields := extractContextFields(l.ctx)
	var mergedFields map[string]interface{}

	if contextFields != nil || len(l.fields) > 0 {
		mergedFields = make(map[string]interface{})

		// Add context fields first (lowest priority)
		for k, v := range contextFields {
			mergedFields[k] = v
		}

		// Add logger's persistent fields (higher priority)
		for k, v := range l.fields {
			mergedFields[k] = v
		}
	}

	l.writeLog(level, formattedMsg, mergedFields)
}

// GetTimestamp returns a formatted timestamp
// Uses RFC3339 format for sortability and timezone awareness
// Can be overridden via LOG_TIMESTAMP env var for testing
func GetTimestamp() string {
	// Allow test override for deterministic output
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
