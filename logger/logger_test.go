package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corymhall/selenelsp/lsp"
)

type logClient struct {
	lsp.Client
	messages chan *lsp.LogMessageParams
}

func (c *logClient) LogMessage(_ context.Context, p *lsp.LogMessageParams) error {
	c.messages <- p
	return nil
}

func next(t *testing.T, c *logClient) *lsp.LogMessageParams {
	t.Helper()
	select {
	case m := <-c.messages:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("no log message")
		return nil
	}
}

func TestHandler(t *testing.T) {
	client := &logClient{messages: make(chan *lsp.LogMessageParams, 10)}
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	log := slog.New(NewHandler(client, level))

	log.Debug("hidden")
	log.Info("linted", "uri", "file:///a.lua", "count", 3)
	log.With("run", 7).WithGroup("selene").Warn("slow", "elapsed", time.Second)
	log.Error("failed", slog.Group("req", "args", "-"), "error", errors.New("boom"))

	require.Equal(t, &lsp.LogMessageParams{Type: lsp.MessageTypeInfo, Message: "linted uri=file:///a.lua count=3"}, next(t, client))
	require.Equal(t, &lsp.LogMessageParams{Type: lsp.MessageTypeWarning, Message: "slow run=7 selene.elapsed=1s"}, next(t, client))
	require.Equal(t, &lsp.LogMessageParams{Type: lsp.MessageTypeError, Message: "failed req.args=- error=boom"}, next(t, client))
}

func TestConvertLevel(t *testing.T) {
	require.Equal(t, lsp.MessageTypeLog, convertLevel(slog.LevelDebug))
	require.Equal(t, lsp.MessageTypeInfo, convertLevel(slog.LevelInfo+1))
	require.Equal(t, lsp.MessageTypeWarning, convertLevel(slog.LevelWarn))
	require.Equal(t, lsp.MessageTypeError, convertLevel(slog.LevelError+4))
}
