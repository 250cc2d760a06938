package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"github.com/corymhall/selenelsp/debug"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/xcontext"
)

// commandProgress reports running commands to the client. Clients without
// work done progress get the same begin and end messages in their log.
type commandProgress struct {
	client    lsp.Client
	logger    *log.Logger
	supported atomic.Bool

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func newCommandProgress(client lsp.Client, logger *log.Logger) *commandProgress {
	return &commandProgress{
		client:  client,
		logger:  logger,
		running: make(map[string]context.CancelFunc),
	}
}

// A task is one command shown to the client. A nil task reports nothing.
type task struct {
	p     *commandProgress
	title string
	// token is empty when the task is logged instead.
	token string
}

// begin shows title as running. cancel is called when the user cancels it.
func (p *commandProgress) begin(ctx context.Context, title string, cancel context.CancelFunc) *task {
	ctx = xcontext.Detach(ctx)
	t := &task{p: p, title: title}
	if !p.supported.Load() {
		p.log(ctx, title+"...")
		return t
	}

	token := fmt.Sprintf("selene/%d", rand.Uint64())
	if err := p.client.WorkDoneProgressCreate(ctx, &lsp.WorkDoneProgressCreateParams{Token: token}); err != nil {
		p.logger.Printf("error creating progress token: %v", err)
		p.log(ctx, title+"...")
		return t
	}
	t.token = token
	p.mu.Lock()
	p.running[token] = cancel
	p.mu.Unlock()

	err := p.client.ProgressBegin(ctx, &lsp.WorkDoneProgressBeginParams{
		Token: token,
		Value: &lsp.WorkDoneProgressBeginValue{
			Kind:        lsp.Begin,
			Title:       title,
			Cancellable: cancel != nil,
		},
	})
	if err != nil {
		p.logger.Printf("error starting progress: %v", err)
	}
	return t
}

func (t *task) end(ctx context.Context, message string) {
	if t == nil {
		return
	}
	ctx = xcontext.Detach(ctx)
	if t.token == "" {
		t.p.log(ctx, fmt.Sprintf("%s: %s", t.title, message))
		return
	}

	t.p.mu.Lock()
	delete(t.p.running, t.token)
	t.p.mu.Unlock()
	err := t.p.client.ProgressEnd(ctx, &lsp.WorkDoneProgressEndParams{
		Token: t.token,
		Value: &lsp.WorkDoneProgressEndValue{Kind: lsp.End, Message: message},
	})
	if err != nil {
		t.p.logger.Printf("error ending progress: %v", err)
	}
}

func (p *commandProgress) cancel(token lsp.ProgressToken) error {
	key, _ := token.(string)
	p.mu.Lock()
	cancel, ok := p.running[key]
	p.mu.Unlock()
	switch {
	case !ok:
		return fmt.Errorf("no command running for progress token %v", token)
	case cancel == nil:
		return fmt.Errorf("command for progress token %v cannot be cancelled", token)
	}
	cancel()
	return nil
}

func (p *commandProgress) log(ctx context.Context, message string) {
	if err := p.client.LogMessage(ctx, &lsp.LogMessageParams{Type: lsp.MessageTypeLog, Message: message}); err != nil {
		p.logger.Printf("error logging message: %v", err)
	}
}

func (s *server) WorkDoneProgressCancel(ctx context.Context, params *lsp.WorkDoneProgressCancelParams) error {
	if err := s.progress.cancel(params.Token); err != nil {
		debug.Warning.Log(ctx, "cancelling command", slog.Any("error", err))
	}
	return nil
}
