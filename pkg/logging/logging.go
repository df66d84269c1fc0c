package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	NameField = "logger"
	FileName  = "parcus.log"
)

var (
	base = newLogger()

	mu   sync.Mutex
	file io.Closer
)

type Options struct {
	Level string
	Path  string
	Debug bool
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&customFormatter{})
	return logger
}

func Logger() *logrus.Logger {
	return base
}

// Get returns a logger tagged with name, e.g. "commands-registry".
func Get(name string) *logrus.Entry {
	return base.WithField(NameField, name)
}

// Configure sets the level of every logger handed out by Get and, when
// opts.Path is set, mirrors records into a rotating file under that path.
func Configure(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	if opts.Debug {
		level = logrus.DebugLevel
	}

	mu.Lock()
	defer mu.Unlock()

	base.SetLevel(level)
	if file != nil {
		file.Close()
		file = nil
	}

	hooks := make(logrus.LevelHooks)
	if opts.Path != "" {
		if err := os.MkdirAll(opts.Path, 0755); err != nil {
			return fmt.Errorf("failed to create logging path: %w", err)
		}
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Path, FileName),
			MaxSize:    1,
			MaxBackups: 10,
		}
		hooks.Add(&fileHook{writer: writer, formatter: &fileFormatter{}})
		file = writer
	}
	base.ReplaceHooks(hooks)

	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "", "INFO":
		return logrus.InfoLevel, nil
	case "DEBUG":
		return logrus.DebugLevel, nil
	case "NOTSET", "TRACE":
		return logrus.TraceLevel, nil
	case "WARNING", "WARN":
		return logrus.WarnLevel, nil
	case "ERROR":
		return logrus.ErrorLevel, nil
	case "CRITICAL", "FATAL":
		return logrus.FatalLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("invalid logging level %q", level)
	}
}

type customFormatter struct{}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var levelText string
	switch entry.Level {
	case logrus.InfoLevel:
		levelText = color.CyanString("[INF]")
	case logrus.WarnLevel:
		levelText = color.YellowString("[WRN]")
	case logrus.ErrorLevel:
		levelText = color.RedString("[ERR]")
	case logrus.FatalLevel, logrus.PanicLevel:
		levelText = color.New(color.FgRed, color.Bold).Sprint("[FTL]")
	case logrus.DebugLevel, logrus.TraceLevel:
		levelText = color.HiBlackString("[DBG]")
	default:
		levelText = "[???]"
	}

	var b strings.Builder
	b.WriteString(levelText)
	b.WriteByte(' ')
	if name, ok := entry.Data[NameField]; ok {
		b.WriteString(color.HiBlackString("%v | ", name))
	}
	b.WriteString(entry.Message)
	writeFields(&b, entry.Data)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

type fileFormatter struct{}

func (f *fileFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	name, _ := entry.Data[NameField].(string)
	if name == "" {
		name = "parcus"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s | %-8s | %s | %s",
		entry.Time.Format("2006-01-02 15:04:05"),
		strings.ToUpper(entry.Level.String()),
		name,
		entry.Message,
	)
	writeFields(&b, entry.Data)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func writeFields(b *strings.Builder, data logrus.Fields) {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == NameField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, data[k])
	}
}

type fileHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}
