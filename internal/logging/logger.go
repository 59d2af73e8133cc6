package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
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

// ParseLevel разбирает имя уровня без учёта регистра. Неизвестное имя даёт INFO.
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case TRACE:
		return logrus.TraceLevel
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger пишет сообщения компонента в консоль и, если задан, в файл.
// Пороги для консоли и файла настраиваются независимо.
type Logger struct {
	component       string
	consoleLogger   *logrus.Logger
	fileLogger      *logrus.Logger
	file            *os.File
	mu              sync.RWMutex
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// NewLogger создаёт логгер компонента с файлом logs/<component>_<время>.log.
func NewLogger(component string) (*Logger, error) {
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории logs: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join("logs", fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	l := NewConsoleLogger(component, os.Stdout)
	l.fileLogger = newLogrus(file, false)
	l.file = file
	l.minFileLevel = TRACE
	return l, nil
}

// NewConsoleLogger создаёт логгер без файла, пишущий в w.
func NewConsoleLogger(component string, w io.Writer) *Logger {
	return &Logger{
		component:       component,
		consoleLogger:   newLogrus(w, w == io.Writer(os.Stdout)),
		minConsoleLevel: INFO,
		minFileLevel:    ERROR,
	}
}

func newLogrus(w io.Writer, colors bool) *logrus.Logger {
	lg := logrus.New()
	lg.Out = w
	lg.Formatter = &logrus.TextFormatter{
		ForceColors:     colors,
		DisableColors:   !colors,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	}
	lg.Level = logrus.TraceLevel
	return lg
}

// Component возвращает имя компонента.
func (l *Logger) Component() string {
	return l.component
}

// SetLevels меняет пороги консоли и файла.
func (l *Logger) SetLevels(console, file LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = console
	l.minFileLevel = file
	l.mu.Unlock()
}

// Levels возвращает текущие пороги консоли и файла.
func (l *Logger) Levels() (console, file LogLevel) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minConsoleLevel, l.minFileLevel
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	console, file := l.Levels()
	msg := fmt.Sprintf(format, args...)

	if l.consoleLogger != nil && level >= console {
		l.consoleLogger.WithField("component", l.component).Log(level.logrus(), msg)
	}
	if l.fileLogger != nil && level >= file {
		l.fileLogger.WithField("component", l.component).Log(level.logrus(), msg)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Close закрывает файл логов, если он открыт.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewConsoleLogger("main", os.Stdout)
)

// InitDefaultLogger заменяет логгер по умолчанию файловым логгером компонента.
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
	return nil
}

// SetDefaultLogger подменяет логгер по умолчанию, используется в тестах.
func SetDefaultLogger(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// CloseDefaultLogger закрывает логгер по умолчанию и возвращает консольный.
func CloseDefaultLogger() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger != nil {
		_ = defaultLogger.Close()
	}
	defaultLogger = NewConsoleLogger("main", os.Stdout)
}

// SetConsoleLevel меняет порог консольного вывода логгера по умолчанию
func SetConsoleLevel(level LogLevel) {
	l := current()
	_, file := l.Levels()
	l.SetLevels(level, file)
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func Trace(format string, args ...interface{}) { current().Trace(format, args...) }
func Debug(format string, args ...interface{}) { current().Debug(format, args...) }
func Info(format string, args ...interface{})  { current().Info(format, args...) }
func Warn(format string, args ...interface{})  { current().Warn(format, args...) }
func Error(format string, args ...interface{}) { current().Error(format, args...) }
