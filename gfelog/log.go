// Package gfelog provides the driver's structured logging, shared by the
// Aging2 workload driver and the RPC server.
package gfelog

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
)

// ModeFlag is the minimum severity that gets written to the log.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	CriticalMode
	SilentMode
)

var (
	// Verbose enables Debugf output regardless of Mode.
	Verbose bool

	mode   ModeFlag
	logger stdLogger
)

// LogConfig configures the rotating log file sink. A zero value logs to stdout.
type LogConfig struct {
	Logfile string
	MaxSize int `toml:"max_log_size"` // megabytes
	MaxAge  int `toml:"max_log_age"`  // days
}

type stdLogger struct {
	*lumberjack.Logger
}

// Configure wires the package-level logger to a rotating file. A blank
// Logfile keeps messages on stdout via the standard log package.
func Configure(c LogConfig) {
	if c.Logfile == "" {
		log.SetOutput(os.Stdout)
		Infof("Sending log messages to stdout since no log file specified.")
		return
	}
	fmt.Printf("Sending log messages to: %s\n", c.Logfile)
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	log.SetOutput(l)
	logger = stdLogger{l}
}

// SetLogMode sets the minimum severity required for a message to be logged.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

func Debugf(format string, args ...interface{}) {
	if !Verbose && mode > DebugMode {
		return
	}
	write("DEBUG", format, args...)
}

func Infof(format string, args ...interface{}) {
	if mode > InfoMode {
		return
	}
	write("INFO", format, args...)
}

func Warningf(format string, args ...interface{}) {
	if mode > WarningMode {
		return
	}
	write("WARNING", format, args...)
}

func Errorf(format string, args ...interface{}) {
	if mode > ErrorMode {
		return
	}
	write("ERROR", format, args...)
}

func Criticalf(format string, args ...interface{}) {
	if mode > CriticalMode {
		return
	}
	write("CRITICAL", format, args...)
}

func write(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logger.Logger != nil {
		logger.Write([]byte(fmt.Sprintf(" %s %s\n", level, msg)))
		return
	}
	log.Printf("%8s %s", level, msg)
}

// TimeLog appends elapsed time to a log line, for phase-timing messages
// like "Graphlog loaded in 4.2s".
type TimeLog struct {
	start time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{start: time.Now()}
}

func (t TimeLog) Infof(format string, args ...interface{}) {
	Infof(format+" (%s)", append(args, time.Since(t.start))...)
}
