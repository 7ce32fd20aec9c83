package xlog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xbst/lib/infra"
)

type xLogger struct {
	logger              atomic.Pointer[zap.Logger]
	dynamicLevelEnabler zap.AtomicLevel
	ctxFields           map[string]string // Read only after built.
	ctxKeys             []string
}

func (l *xLogger) IncreaseLogLevel(level zapcore.Level) {
	l.dynamicLevelEnabler.SetLevel(level)
}

func (l *xLogger) Level() string {
	return l.dynamicLevelEnabler.Level().String()
}

func (l *xLogger) Sync() error {
	return l.logger.Load().Sync()
}

// Named returns a child logger sharing the level and the context fields.
func (l *xLogger) Named(name string) XLogger {
	child := &xLogger{
		dynamicLevelEnabler: l.dynamicLevelEnabler,
		ctxFields:           l.ctxFields,
		ctxKeys:             l.ctxKeys,
	}
	child.logger.Store(l.logger.Load().Named(name))
	return child
}

func (l *xLogger) Debug(msg string, fields ...zap.Field) {
	l.logger.Load().Debug(msg, fields...)
}

func (l *xLogger) Info(msg string, fields ...zap.Field) {
	l.logger.Load().Info(msg, fields...)
}

func (l *xLogger) Warn(msg string, fields ...zap.Field) {
	l.logger.Load().Warn(msg, fields...)
}

func (l *xLogger) Error(err error, msg string, fields ...zap.Field) {
	newFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		newFields = append(newFields, zap.String("error", err.Error()))
	}
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

func errorStackFields(err error) []zap.Field {
	if es, ok := err.(infra.ErrorStack); ok && es != nil {
		return []zap.Field{zap.Inline(es)}
	}
	if err != nil {
		return []zap.Field{zap.String("error", err.Error())}
	}
	return []zap.Field{}
}

func (l *xLogger) ErrorStack(err error, msg string, fields ...zap.Field) {
	newFields := errorStackFields(err)
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

func (l *xLogger) DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	newFields = append(newFields, fields...)
	l.logger.Load().Debug(msg, newFields...)
}

func (l *xLogger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	newFields = append(newFields, fields...)
	l.logger.Load().Info(msg, newFields...)
}

func (l *xLogger) WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	newFields = append(newFields, fields...)
	l.logger.Load().Warn(msg, newFields...)
}

func (l *xLogger) ErrorContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	if err != nil {
		newFields = append(newFields, zap.String("error", err.Error()))
	}
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

func (l *xLogger) ErrorStackContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	newFields := l.extractFieldsFromContext(ctx)
	newFields = append(newFields, errorStackFields(err)...)
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

// Logf is slow, prefer the structured methods.
func (l *xLogger) Logf(lvl zapcore.Level, format string, args ...any) {
	l.logger.Load().Log(lvl, fmt.Sprintf(format, args...))
}

func (l *xLogger) ErrorStackf(err error, format string, args ...any) {
	l.logger.Load().Log(zapcore.ErrorLevel, fmt.Sprintf(format, args...), errorStackFields(err)...)
}

func (l *xLogger) extractFieldsFromContext(ctx context.Context) []zap.Field {
	if ctx == nil || len(l.ctxKeys) == 0 {
		return []zap.Field{}
	}

	newFields := make([]zap.Field, 0, len(l.ctxKeys))
	for _, key := range l.ctxKeys {
		mapTo := l.ctxFields[key]
		if mapTo == ContextKeyMapToOmitempty {
			continue
		}
		if v := ctx.Value(key); v == nil {
			newFields = append(newFields, zap.String(mapTo, "nil"))
		} else {
			newFields = append(newFields, zap.Any(mapTo, v))
		}
	}
	return newFields
}

type loggerCfg struct {
	ctxFields   map[string]string
	writerType  *LogOutWriterType
	ws          zapcore.WriteSyncer
	encoderType *LogEncoderType
	lvlEncoder  zapcore.LevelEncoder
	tsEncoder   zapcore.TimeEncoder
	level       *zapcore.Level
	core        xLogCore
}

func (cfg *loggerCfg) apply(l *xLogger) {
	if cfg.writerType == nil {
		w := StdOut
		cfg.writerType = &w
	}
	if cfg.ws == nil {
		cfg.ws = getOutWriterByType(*cfg.writerType)
	}

	if cfg.encoderType == nil {
		enc := JSON
		cfg.encoderType = &enc
	}

	if cfg.level != nil {
		l.dynamicLevelEnabler = zap.NewAtomicLevelAt(*cfg.level)
	} else {
		l.dynamicLevelEnabler = zap.NewAtomicLevelAt(getLogLevelOrDefault(os.Getenv("XLOG_LVL")))
	}

	l.ctxFields = cfg.ctxFields
	l.ctxKeys = make([]string, 0, len(cfg.ctxFields))
	for key := range cfg.ctxFields {
		l.ctxKeys = append(l.ctxKeys, key)
	}
	sort.Strings(l.ctxKeys)

	if cfg.lvlEncoder == nil {
		cfg.lvlEncoder = zapcore.CapitalLevelEncoder
	}

	if cfg.tsEncoder == nil {
		cfg.tsEncoder = zapcore.ISO8601TimeEncoder
	}

	if cfg.core == nil {
		cfg.core = &consoleCore{}
	}
}

type XLoggerOption func(*loggerCfg) error

// NewXLogger panics on an invalid option.
func NewXLogger(opts ...XLoggerOption) XLogger {
	cfg := &loggerCfg{}
	for _, o := range opts {
		if err := o(cfg); err != nil {
			panic(err)
		}
	}
	xl := &xLogger{}
	cfg.apply(xl)

	core, err := cfg.core.Build(
		xl.dynamicLevelEnabler,
		*cfg.encoderType,
		cfg.ws,
		cfg.lvlEncoder,
		cfg.tsEncoder,
	)
	if err != nil {
		panic(err)
	}

	// Disable zap logger error stack.
	l := zap.New(
		core,
		zap.AddCallerSkip(1), // Use caller filename as service
		zap.AddCaller(),
	)
	xl.logger.Store(l)
	return xl
}

func WithXLoggerWriter(w LogOutWriterType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if w >= _writerMax {
			return infra.NewErrorStack("unknown xlogger writer")
		}
		cfg.writerType = &w
		return nil
	}
}

// WithXLoggerWriteSyncer takes precedence over WithXLoggerWriter.
func WithXLoggerWriteSyncer(ws zapcore.WriteSyncer) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if ws == nil {
			return infra.NewErrorStack("nil xlogger write syncer")
		}
		cfg.ws = ws
		return nil
	}
}

func WithXLoggerEncoder(logEnc LogEncoderType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if logEnc >= _encMax {
			return infra.NewErrorStack("unknown xlogger encoder")
		}
		cfg.encoderType = &logEnc
		return nil
	}
}

func WithXLoggerLevel(lvl LogLevel) XLoggerOption {
	return func(cfg *loggerCfg) error {
		_lvl := lvl.zapLevel()
		cfg.level = &_lvl
		return nil
	}
}

func WithXLoggerLevelEncoder(lvlEnc zapcore.LevelEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if lvlEnc == nil {
			lvlEnc = zapcore.CapitalColorLevelEncoder
		}
		cfg.lvlEncoder = lvlEnc
		return nil
	}
}

func WithXLoggerTimeEncoder(tsEnc zapcore.TimeEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if tsEnc == nil {
			tsEnc = zapcore.ISO8601TimeEncoder
		}
		cfg.tsEncoder = tsEnc
		return nil
	}
}

// WithXLoggerContextFieldExtract registers a context key whose value is
// logged by the context methods. mapTo renames the field,
// ContextKeyMapToOmitempty drops it.
func WithXLoggerContextFieldExtract(field string, mapTo ...string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if len(field) == 0 {
			return nil
		}
		if cfg.ctxFields == nil {
			cfg.ctxFields = make(map[string]string, 4)
		}
		if len(mapTo) == 0 || mapTo[0] == ContextKeyMapToItself {
			mapTo = []string{field}
		}
		cfg.ctxFields[field] = mapTo[0]
		return nil
	}
}

func WithXLoggerConsoleCore() XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.core = &consoleCore{}
		return nil
	}
}

func getLogLevelOrDefault(level string) zapcore.Level {
	if len(strings.TrimSpace(level)) == 0 {
		return zapcore.DebugLevel
	}
	return LogLevel(strings.ToUpper(level)).zapLevel()
}
