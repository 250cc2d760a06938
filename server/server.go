package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pulumi/pulumi/sdk/v3/go/common/util/contract"

	"github.com/corymhall/selenelsp/file"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/selene"
	"github.com/corymhall/selenelsp/settings"
	"github.com/corymhall/selenelsp/trigger"
	"github.com/corymhall/selenelsp/watch"
)

// Tool is the selene executable as the server uses it. *selene.Runner
// implements it.
type Tool interface {
	selene.Tool
	// Path locates the executable without running it.
	Path() (string, error)
	SetSelenePath(path string)
}

var _ Tool = (*selene.Runner)(nil)

// Options configure a server. Client and Tool are required.
type Options struct {
	Logger *log.Logger
	Client lsp.Client
	Tool   Tool

	// Settings are the defaults that client pushes are merged on top of.
	Settings settings.Settings

	// Trigger options are passed to the run scheduler.
	Trigger []trigger.Option

	// Watch enables the file watcher for selene.toml and the selene binary.
	Watch bool

	// Exit is called by the exit notification. It defaults to os.Exit.
	Exit func(code int)
}

// pluginPromptMemory bounds how many plugin paths are remembered as asked.
const pluginPromptMemory = 128

// New creates an LSP server that lints documents with selene and publishes
// the results to opts.Client.
func New(opts Options) lsp.Server {
	contract.Assertf(opts.Client != nil, "server needs a client")
	contract.Assertf(opts.Tool != nil, "server needs a selene tool")

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}
	defaults := opts.Settings
	if defaults == (settings.Settings{}) {
		defaults = settings.Default()
	}
	asked, err := lru.New[string, struct{}](pluginPromptMemory)
	contract.AssertNoErrorf(err, "creating plugin prompt cache")

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &server{
		logger:       logger,
		client:       opts.Client,
		tool:         opts.Tool,
		watchFiles:   opts.Watch,
		exit:         exit,
		progress:     newCommandProgress(opts.Client, logger),
		settings:     defaults,
		documents:    make(map[lsp.DocumentURI]*file.Overlay),
		diagnostics:  make(map[lsp.DocumentURI]*fileDiagnostics),
		askedPlugins: asked,
		baseCtx:      baseCtx,
		cancel:       cancel,
	}
	s.tool.SetSelenePath(defaults.SelenePath)
	s.scheduler = trigger.New(s.triggered, opts.Trigger...)
	return s
}

type serverState int

const (
	serverCreated      = serverState(iota)
	serverInitializing // set once the server has received "initialize" request
	serverInitialized  // set once the server has received "initialized" request
	serverShutDown
)

func (s serverState) String() string {
	switch s {
	case serverCreated:
		return "created"
	case serverInitializing:
		return "initializing"
	case serverInitialized:
		return "initialized"
	case serverShutDown:
		return "shutDown"
	}
	return fmt.Sprintf("(unknown state: %d)", int(s))
}

type server struct {
	logger     *log.Logger
	client     lsp.Client
	tool       Tool
	gate       selene.Gate
	scheduler  *trigger.Scheduler
	progress   *commandProgress
	watchFiles bool
	exit       func(code int)

	stateMu sync.Mutex
	state   serverState

	mu                    sync.Mutex // guards the fields below
	rootDir               string
	settings              settings.Settings
	supportsConfiguration bool
	documents             map[lsp.DocumentURI]*file.Overlay
	// toolMissing suppresses runs after selene could not be found or
	// launched, until the user does something that may fix it.
	toolMissing  bool
	warnedRoblox bool
	watcher      *watch.Watcher
	binaryPath   string

	// runSeq orders runs. Results of a run older than the newest one
	// published for a document are dropped.
	runSeq atomic.Uint64

	diagnosticsMu sync.Mutex // guards map and its values
	diagnostics   map[lsp.DocumentURI]*fileDiagnostics

	askedPlugins *lru.Cache[string, struct{}]

	// baseCtx outlives requests; background work derives from it and is
	// cancelled on shutdown.
	baseCtx context.Context
	cancel  func()
	bgMu    sync.Mutex
	bgDone  bool
	bg      sync.WaitGroup
}

func (s *server) Logger() *log.Logger {
	return s.logger
}

// goBackground runs fn on its own goroutine unless the server is shutting
// down. Handlers are called one at a time by the connection, so anything
// that calls back into the client has to go through here.
func (s *server) goBackground(fn func(ctx context.Context)) bool {
	s.bgMu.Lock()
	defer s.bgMu.Unlock()
	if s.bgDone {
		return false
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn(s.baseCtx)
	}()
	return true
}

func (s *server) currentSettings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *server) root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootDir
}

func (s *server) showMessage(ctx context.Context, typ lsp.MessageType, msg string) {
	if err := s.client.ShowMessage(ctx, &lsp.ShowMessageParams{Type: typ, Message: msg}); err != nil {
		s.logger.Printf("error showing message: %v", err)
	}
}

// Shutdown implements the 'shutdown' LSP handler. It releases resources
// associated with the server and waits for all ongoing work to complete.
func (s *server) Shutdown(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state == serverShutDown {
		return nil
	}
	s.state = serverShutDown

	s.scheduler.Stop()
	s.bgMu.Lock()
	s.bgDone = true
	s.bgMu.Unlock()
	s.cancel()
	s.bg.Wait()

	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		if err := w.Close(); err != nil {
			s.logger.Printf("error closing watcher: %v", err)
		}
	}
	return nil
}

func (s *server) Exit(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state != serverShutDown {
		s.exit(1)
		return nil
	}
	s.exit(0)
	return nil
}
