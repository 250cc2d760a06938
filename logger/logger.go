// Package logger mirrors slog records to the client's output panel.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/xcontext"
)

var ProgramLevel = new(slog.LevelVar)

// queueSize is big enough for a large transient burst. Records beyond it
// are dropped rather than blocking the caller.
const queueSize = 100

type sender struct {
	once  sync.Once
	queue chan func()
}

func (s *sender) send(fn func()) bool {
	s.once.Do(func() {
		go func() {
			for fn := range s.queue {
				fn()
			}
		}()
	})
	select {
	case s.queue <- fn:
		return true
	default:
		return false
	}
}

// Handler is an slog.Handler that forwards records as window/logMessage
// notifications, in the order they were logged.
type Handler struct {
	client lsp.Client
	level  slog.Leveler
	sender *sender
	prefix string
	attrs  string
}

func NewHandler(client lsp.Client, level slog.Leveler) *Handler {
	if level == nil {
		level = ProgramLevel
	}
	return &Handler{
		client: client,
		level:  level,
		sender: &sender{queue: make(chan func(), queueSize)},
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	params := &lsp.LogMessageParams{
		Type:    convertLevel(r.Level),
		Message: b.String(),
	}
	ctx = xcontext.Detach(ctx)
	h.sender.send(func() { _ = h.client.LogMessage(ctx, params) })
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.prefix, a)
	}
	h2 := *h
	h2.attrs = b.String()
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, group, ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value)
}

func convertLevel(level slog.Level) lsp.MessageType {
	switch {
	case level >= slog.LevelError:
		return lsp.MessageTypeError
	case level >= slog.LevelWarn:
		return lsp.MessageTypeWarning
	case level >= slog.LevelInfo:
		return lsp.MessageTypeInfo
	default:
		return lsp.MessageTypeLog
	}
}
