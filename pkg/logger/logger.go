package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Options 日志初始化选项
type Options struct {
	Level     string // debug / info / warn / error
	Output    string // console / file / both
	Format    string // text / json
	FilePath  string // Output为file或both时的日志文件路径
	Colorize  bool   // 控制台text格式下给级别着色
	AddSource bool   // 记录调用位置
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	levelVar      slog.LevelVar
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

// Init 初始化全局日志器,重复调用会替换当前配置
func Init(opts Options) error {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return err
	}
	levelVar.Set(level)

	writer, err := buildWriter(opts)
	if err != nil {
		return err
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     &levelVar,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		if opts.Colorize && opts.Output != "file" {
			handlerOpts.ReplaceAttr = colorizeLevel
		}
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	mu.Lock()
	defaultLogger = slog.New(handler)
	mu.Unlock()
	return nil
}

// SetLevel 动态调整日志级别
func SetLevel(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}
	levelVar.Set(parsed)
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}

func buildWriter(opts Options) (io.Writer, error) {
	switch strings.ToLower(opts.Output) {
	case "", "console":
		return os.Stdout, nil
	case "file":
		return openLogFile(opts.FilePath)
	case "both":
		f, err := openLogFile(opts.FilePath)
		if err != nil {
			return nil, err
		}
		return io.MultiWriter(os.Stdout, f), nil
	default:
		return nil, fmt.Errorf("unknown log output: %s", opts.Output)
	}
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is required for file output")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func colorizeLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	var color string
	switch {
	case level >= slog.LevelError:
		color = colorRed
	case level >= slog.LevelWarn:
		color = colorYellow
	case level >= slog.LevelInfo:
		color = colorBlue
	default:
		color = colorGray
	}
	a.Value = slog.StringValue(color + level.String() + colorReset)
	return a
}

// get 返回当前日志器,未初始化时惰性创建控制台默认配置
func get() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &levelVar}))
	}
	return defaultLogger
}

// Logger 可注入的日志能力,方法与包级函数一致
// 处理器按构造参数接收它,避免对进程级单例的隐式依赖
type Logger struct{}

func New() *Logger { return &Logger{} }

func (*Logger) Debug(msg string, args ...any) { Debug(msg, args...) }
func (*Logger) Info(msg string, args ...any)  { Info(msg, args...) }
func (*Logger) Warn(msg string, args ...any)  { Warn(msg, args...) }
func (*Logger) Error(msg string, args ...any) { Error(msg, args...) }

// 键值对参数在写出前统一脱敏,凭据不落日志
func Debug(msg string, args ...any) {
	get().Debug(msg, SanitizeArgs(args...)...)
}

func Info(msg string, args ...any) {
	get().Info(msg, SanitizeArgs(args...)...)
}

func Warn(msg string, args ...any) {
	get().Warn(msg, SanitizeArgs(args...)...)
}

func Error(msg string, args ...any) {
	get().Error(msg, SanitizeArgs(args...)...)
}
