package logging

import (
	"io"
	"log"
	"os"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func getFileWriter(logFileName string) io.Writer {
	return &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   false,
	}
}

func parseConfigLevel(levelName string) (zapcore.Level, error) {
	return zapcore.ParseLevel(levelName)
}

func parseConfigLevelEncoder(levelEncoderName string) zapcore.LevelEncoder {
	switch levelEncoderName {
	case "capitalColor":
		return zapcore.CapitalColorLevelEncoder
	case "capital":
		return zapcore.CapitalLevelEncoder
	case "lowercase":
		return zapcore.LowercaseLevelEncoder
	default:
		return zapcore.CapitalLevelEncoder
	}
}

func encoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:  "message",
		LevelKey:    "level",
		EncodeLevel: levelEncoder,
		TimeKey:     "time",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000000Z"))
		},
		CallerKey:        "caller",
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		NameKey:          "name",
		ConsoleSeparator: "\t",
	}
}

// SetGlobalLogger replaces zap's global logger. Console output goes to stderr so
// that stdout stays free for the command reports; when logFilePath is set, every
// entry is additionally written as JSON to a rotated file.
func SetGlobalLogger(levelName, levelEncoderName, logFormat, logFilePath string) error {
	level, err := parseConfigLevel(levelName)
	if err != nil {
		return err
	}

	cfg := encoderConfig(parseConfigLevelEncoder(levelEncoderName))

	var enc zapcore.Encoder
	switch logFormat {
	case "json":
		enc = zapcore.NewJSONEncoder(cfg)
	default:
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	lv := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= level
	})
	consoleCore := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lv)

	if logFilePath == "" {
		zap.ReplaceGlobals(zap.New(consoleCore))
		return nil
	}

	lvAll := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return true // file gets everything
	})
	fileEnc := zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig())
	fileCore := zapcore.NewCore(fileEnc, zapcore.AddSync(getFileWriter(logFilePath)), lvAll)

	zap.ReplaceGlobals(zap.New(zapcore.NewTee(consoleCore, fileCore)))

	return nil
}

func CapturePanic(logger *zap.Logger) {
	if r := recover(); r != nil {
		defer func() {
			if err := logger.Sync(); err != nil {
				log.Println("failed to sync zap.Logger", err)
			}
		}()
		stackTrace := string(debug.Stack())
		logger.Panic("Recovered from panic", zap.Any("panic", r), zap.String("stackTrace", stackTrace))
	}
}
