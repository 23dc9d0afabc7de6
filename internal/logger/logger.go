// Package logger provides the process-wide leveled logger shared by the
// propstore CLI and servers.
//
// Configuration happens once at startup: SetLevel and SetOutput are not
// synchronized with logging calls.
package logger

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel = LevelInfo
	logger       = stdlog.New(os.Stdout, "", 0)
	logFile      *os.File
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
}

// SetOutput redirects log output. The values "stdout" and "stderr"
// select the corresponding standard stream; anything else is treated as
// a file path and opened in append mode. A previously opened log file
// is closed when the output changes.
func SetOutput(output string) error {
	var dest *os.File
	switch strings.ToLower(output) {
	case "", "stdout":
		dest = os.Stdout
	case "stderr":
		dest = os.Stderr
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file %q: %w", output, err)
		}
		dest = file
	}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if dest != os.Stdout && dest != os.Stderr {
		logFile = dest
	}

	logger.SetOutput(dest)
	return nil
}

func log(level Level, format string, v ...any) {
	if level < currentLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	prefix := fmt.Sprintf("[%s] [%s] ", timestamp, level.String())
	message := fmt.Sprintf(format, v...)
	logger.Println(prefix + message)
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
