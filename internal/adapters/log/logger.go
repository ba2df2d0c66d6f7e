package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

type Logger interface {
	SetLevel(level int)
	SetOutput(w io.Writer)
	SetOutputToFile(filename string) error
	GetLevel() int
	Debug(message string, v ...interface{})
	Info(message string, v ...interface{})
	Warn(message string, v ...interface{})
	Error(message string, v ...interface{})
	Fatal(message string, v ...interface{})
}

type StdLogger struct {
	level    int
	output   io.Writer
	instance *log.Logger
	mu       sync.Mutex
}

var (
	once     sync.Once
	instance Logger
	swapMu   sync.RWMutex
)

func GetInstance() Logger {
	once.Do(func() {
		swapMu.Lock()
		if instance == nil {
			instance = New(os.Stdout)
		}
		swapMu.Unlock()
	})
	swapMu.RLock()
	defer swapMu.RUnlock()
	return instance
}

// SetInstance replaces the process logger. Tests use it to install mocks.
func SetInstance(l Logger) {
	once.Do(func() {})
	swapMu.Lock()
	defer swapMu.Unlock()
	instance = l
}

func New(w io.Writer) *StdLogger {
	return &StdLogger{
		level:    LevelInfo,
		output:   w,
		instance: log.New(w, "", 0),
	}
}

func ParseLevel(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *StdLogger) SetLevel(level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *StdLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.instance.SetOutput(w)
}

// SetOutputToFile keeps writing to stdout and adds a rotated log file.
func (l *StdLogger) SetOutputToFile(filename string) error {
	if filename == "" {
		return fmt.Errorf("log file name is empty")
	}
	rotated := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	l.SetOutput(io.MultiWriter(os.Stdout, rotated))
	return nil
}

func (l *StdLogger) GetLevel() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func levelName(level int) string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func callerInfo() string {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "unknown:0"
	}
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func (l *StdLogger) logMessage(level int, message string, v ...interface{}) {
	if level < l.GetLevel() {
		return
	}

	caller := callerInfo()
	formatted := message
	if len(v) > 0 {
		formatted = fmt.Sprintf(message, v...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.instance.Println(fmt.Sprintf("%s [%s] %s - %s",
		time.Now().Format("2006-01-02 15:04:05"), levelName(level), caller, formatted))
}

func (l *StdLogger) Debug(message string, v ...interface{}) {
	l.logMessage(LevelDebug, message, v...)
}

func (l *StdLogger) Info(message string, v ...interface{}) {
	l.logMessage(LevelInfo, message, v...)
}

func (l *StdLogger) Warn(message string, v ...interface{}) {
	l.logMessage(LevelWarn, message, v...)
}

func (l *StdLogger) Error(message string, v ...interface{}) {
	l.logMessage(LevelError, message, v...)
}

func (l *StdLogger) Fatal(message string, v ...interface{}) {
	l.logMessage(LevelFatal, message, v...)
	os.Exit(1)
}
