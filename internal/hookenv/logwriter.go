// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"context"
	"fmt"
	"io"

	"github.com/juju/loggo/v2"
)

// Logger is the part of Tools used to forward log records.
type Logger interface {
	Log(ctx context.Context, level loggo.Level, message string) error
}

// NewLogWriter returns a loggo.Writer that sends every record to juju-log.
// Records that cannot be delivered are written to fallback instead.
func NewLogWriter(logger Logger, fallback io.Writer) loggo.Writer {
	return &logWriter{
		logger:   logger,
		fallback: fallback,
	}
}

type logWriter struct {
	logger   Logger
	fallback io.Writer
}

// Write implements loggo.Writer.
func (w *logWriter) Write(entry loggo.Entry) {
	message := fmt.Sprintf("%s: %s", entry.Module, entry.Message)
	if err := w.logger.Log(context.Background(), entry.Level, message); err != nil && w.fallback != nil {
		_, _ = fmt.Fprintf(w.fallback, "%s %s\n", entry.Level, message)
	}
}
