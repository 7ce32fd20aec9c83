package xlog

import (
	"go.uber.org/zap/zapcore"
)

type xLogCore interface {
	Build(
		lvlEnabler zapcore.LevelEnabler,
		encoder LogEncoderType,
		ws zapcore.WriteSyncer,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) (zapcore.Core, error)
}

var _ xLogCore = (*consoleCore)(nil)

type consoleCore struct{}

func (cc *consoleCore) Build(
	lvlEnabler zapcore.LevelEnabler,
	encoder LogEncoderType,
	ws zapcore.WriteSyncer,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) (core zapcore.Core, err error) {
	config := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "lvl",
		EncodeLevel:   lvlEnc,
		TimeKey:       "ts",
		EncodeTime:    tsEnc,
		CallerKey:     "callAt",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		FunctionKey:   coreKeyIgnored,
		NameKey:       "component",
		EncodeName:    zapcore.FullNameEncoder,
		StacktraceKey: coreKeyIgnored,
	}
	core = zapcore.NewCore(getEncoderByType(encoder)(config), ws, lvlEnabler)
	return core, nil
}
