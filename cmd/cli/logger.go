package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	debugColor = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
)

type CliHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
}

// Enabled implements slog.Handler.
func (h *CliHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *CliHandler) Handle(_ context.Context, record slog.Record) error {
	var builder strings.Builder

	switch {
	case record.Level >= slog.LevelError:
		builder.WriteString(errorColor.Sprint("error: "))
	case record.Level >= slog.LevelWarn:
		builder.WriteString(warnColor.Sprint("warning: "))
	}

	message := record.Message
	if record.Level < slog.LevelInfo {
		message = debugColor.Sprint(message)
	}
	builder.WriteString(message)

	writeAttr := func(attr slog.Attr) bool {
		builder.WriteString(" ")
		builder.WriteString(attr.Key)
		builder.WriteString("=")
		builder.WriteString(attr.Value.String())
		return true
	}
	for _, attr := range h.attrs {
		writeAttr(attr)
	}
	record.Attrs(writeAttr)
	builder.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, builder.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *CliHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *CliHandler) WithGroup(name string) slog.Handler {
	return h
}

func NewCliHandler(writer io.Writer, level slog.Leveler) *CliHandler {
	return &CliHandler{
		mu:     &sync.Mutex{},
		writer: writer,
		level:  level,
	}
}

var _ slog.Handler = &CliHandler{}
