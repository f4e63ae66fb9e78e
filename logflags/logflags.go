// Package logflags builds the diagnostic logger used behind the --log-level
// flag.
package logflags

import (
	"fmt"
	"io"

	"github.com/BertoldVdb/fw-patcher/fwpatch"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger = *zap.SugaredLogger

// New returns a console logger writing to out. Nothing below Warn is emitted
// unless verbose is set.
func New(out io.Writer, verbose bool) Logger {
	encoderConfig := zapcore.EncoderConfig{
		LevelKey:    "level",
		NameKey:     "logger",
		MessageKey:  "message",
		EncodeLevel: zapcore.CapitalLevelEncoder,
		EncodeName:  zapcore.FullNameEncoder,
	}

	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(out),
		level,
	)

	return zap.New(core).Sugar()
}

// LogFunc adapts log to the engine's levelled callback. Messages with a level
// above maxLevel are dropped, level 0 is a warning and always passes.
func LogFunc(log Logger, name string, maxLevel int) fwpatch.LogFunc {
	named := log.Named(name)
	return func(level int, format string, param ...interface{}) {
		if level > maxLevel {
			return
		}
		if level <= 0 {
			named.Warn(fmt.Sprintf(format, param...))
			return
		}
		named.Debugw(fmt.Sprintf(format, param...), "level", level)
	}
}
