// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"
	"os"
)

// stdLogger implements hexwire.Logger over the standard log package,
// the same minimal adapter moffa90's bootloader.Logger doc comment
// sketches for callers with no logging framework of their own.
type stdLogger struct {
	debugEnabled bool
	logger       *log.Logger
}

func newStdLogger(debugEnabled bool) *stdLogger {
	return &stdLogger{
		debugEnabled: debugEnabled,
		logger:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *stdLogger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.debugEnabled {
		return
	}
	l.logger.Println("DEBUG", msg, keysAndValues)
}

func (l *stdLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Println("INFO", msg, keysAndValues)
}

func (l *stdLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Println("ERROR", msg, keysAndValues)
}
