package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"FloorSignin/config"
	"FloorSignin/utils"
)

var (
	// Logger 未初始化时为 Nop，便于各包在测试中直接使用
	Logger   = zap.NewNop()
	logClose io.Closer
)

// Options 构建 logger 所需的配置
type Options struct {
	Service    string
	Level      string
	Format     string // json, text
	OutputPath string // stdout 或文件路径
	// Development 强制使用彩色文本输出
	Development bool
}

// Init 按全局配置初始化 Logger；日志文件无法打开时退回 stdout
func Init() {
	opts := Options{
		Service:     config.Cfg.ServiceName,
		Level:       config.Cfg.LoggerLevel,
		Format:      config.Cfg.LoggerFormat,
		OutputPath:  config.Cfg.LoggerOutputPath,
		Development: config.Cfg.IsDevelopment(),
	}

	l, closer, err := New(opts)
	if err != nil {
		opts.OutputPath = "stdout"
		l, closer, _ = New(opts)
		l.Warn("Failed to open log file, falling back to stdout", zap.Error(err))
	}
	Logger, logClose = l, closer

	Logger.Info("Logger initialized successfully",
		zap.String("level", strings.ToUpper(opts.Level)),
		zap.String("format", opts.Format),
		zap.String("environment", config.Cfg.Environment),
	)
}

// New 构建独立的 logger，closer 在输出到文件时非 nil
func New(opts Options) (*zap.Logger, io.Closer, error) {
	ws, closer, err := buildWriteSyncer(opts.OutputPath)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(buildEncoder(opts), ws, zap.NewAtomicLevelAt(parseZapLevel(opts.Level)))
	l := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if opts.Service != "" {
		l = l.With(zap.String("service", opts.Service))
	}
	return l, closer, nil
}

func Sync() {
	_ = Logger.Sync()

	if logClose != nil {
		_ = logClose.Close()
		logClose = nil
	}
}

func buildEncoder(opts Options) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = shanghaiTimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if opts.Development || strings.EqualFold(opts.Format, "text") {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// 日志时间统一按上海时区输出，与签到日切一致
func shanghaiTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	zapcore.ISO8601TimeEncoder(t.In(utils.Shanghai), enc)
}

func buildWriteSyncer(path string) (zapcore.WriteSyncer, io.Closer, error) {
	if path == "" || strings.EqualFold(path, "stdout") {
		return zapcore.AddSync(os.Stdout), nil, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return zapcore.AddSync(file), file, nil
}

func parseZapLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
