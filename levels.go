package ringlog

import (
	"errors"
	"strings"
)

// LogLevel represents the severity level of a log message.
// Higher values indicate more severe log levels.
type LogLevel int32

// Log level constants defining the supported severity levels.
//
// Levels are ordered from least to most severe:
// - DEBUG: Detailed information for debugging
// - INFO: General operational information
// - WARN: Warning messages for potentially harmful situations
// - ERROR: Error messages for serious problems
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String converts a LogLevel to its string representation.
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a string to its corresponding LogLevel.
// Matching is case-insensitive; "WARNING" is accepted as an alias of WARN.
//
// Example:
//
//	level, err := ParseLogLevel("info")
//	if err != nil {
//	    panic(err)
//	}
//	fmt.Println(level) // Output: INFO
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return DEBUG, errors.New("invalid log level: " + level)
	}
}
