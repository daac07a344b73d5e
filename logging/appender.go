package logging

import (
	"io"
	"os"

	"go.uber.org/zap/zapcore"
)

// Appender is an output for log entries. A `zapcore.Core` satisfies this interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// NewStdoutAppender creates a new appender that writes console formatted entries to stdout.
func NewStdoutAppender() Appender {
	return NewWriterAppender(os.Stdout)
}

// NewWriterAppender creates a new appender that writes console formatted entries to `writer`.
func NewWriterAppender(writer io.Writer) Appender {
	encoder := zapcore.NewConsoleEncoder(newEncoderConfig())
	return zapcore.NewCore(encoder, zapcore.AddSync(writer), zapcore.DebugLevel)
}
