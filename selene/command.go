package selene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/corymhall/selenelsp/debug"
)

// ErrToolNotFound is returned when no selene executable could be located.
var ErrToolNotFound = errors.New("could not find selene")

// Expectation describes which exit status of a selene invocation carries
// the output the caller is interested in.
type Expectation int

const (
	// ExpectFindings is used for lint runs: selene exits non-zero when it
	// reports anything, so only a failed exit yields output.
	ExpectFindings Expectation = iota
	// ExpectSuccess is used for subcommands such as capabilities, where a
	// non-zero exit is an error.
	ExpectSuccess
)

type Request struct {
	Args []string
	// Dir is the working directory. Empty means the server's own.
	Dir string
	// Stdin, when set, is piped to the process.
	Stdin  *string
	Expect Expectation
}

// LaunchError means the process could not be started at all.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError is a non-zero exit from an ExpectSuccess request, or a process
// that was killed before it exited.
type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("selene exited with code %d: %s", e.Code, strings.TrimSpace(e.Output))
}

// Tool is what the rest of the server needs from a selene executable.
type Tool interface {
	Run(ctx context.Context, req Request) (string, error)
}

type Runner struct {
	once sync.Once

	// inFlight bounds the number of concurrent selene processes.
	inFlight    chan struct{}
	concurrency int

	mu         sync.Mutex
	selenePath string
	storageDir string
}

// NewRunner returns a runner that looks for a managed binary in storageDir
// when neither a configured path nor $PATH provides one.
func NewRunner(storageDir string, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		storageDir:  storageDir,
		concurrency: concurrency,
	}
}

func (r *Runner) initialize() {
	r.once.Do(func() {
		r.inFlight = make(chan struct{}, r.concurrency)
	})
}

// SetSelenePath overrides binary discovery. An empty path restores it.
func (r *Runner) SetSelenePath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selenePath = path
}

// BinaryName is the file name of a managed selene download for this
// platform.
func BinaryName() string {
	switch runtime.GOOS {
	case "windows":
		return "selene.exe"
	case "darwin":
		return "selene-osx"
	default:
		return "selene-linux"
	}
}

// Path locates the executable: the configured path, then "selene" on $PATH,
// then the managed binary in the storage directory.
func (r *Runner) Path() (string, error) {
	r.mu.Lock()
	configured, storage := r.selenePath, r.storageDir
	r.mu.Unlock()

	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("%w at %s: %w", ErrToolNotFound, configured, err)
		}
		return configured, nil
	}
	if p, err := exec.LookPath("selene"); err == nil {
		return p, nil
	}
	if storage != "" {
		p := filepath.Join(storage, BinaryName())
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrToolNotFound
}

// Run executes selene and returns its combined output according to
// req.Expect. For ExpectFindings a clean exit returns an empty string.
func (r *Runner) Run(ctx context.Context, req Request) (string, error) {
	r.initialize()

	path, err := r.Path()
	if err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r.inFlight <- struct{}{}:
		defer func() { <-r.inFlight }()
	}

	ctx, done := debug.Start(ctx, "selene", "args", strings.Join(req.Args, " "), "dir", req.Dir)
	defer done()

	cmd := exec.CommandContext(ctx, path, req.Args...)
	cmd.Dir = req.Dir
	if req.Stdin != nil {
		cmd.Stdin = strings.NewReader(*req.Stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err = cmd.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		if req.Expect == ExpectFindings {
			return "", nil
		}
		return out.String(), nil
	case errors.As(err, &exitErr):
		// A negative code means the process was killed by a signal.
		if req.Expect == ExpectFindings && exitErr.ExitCode() > 0 {
			return out.String(), nil
		}
		return "", &ExitError{Code: exitErr.ExitCode(), Output: out.String()}
	default:
		return "", &LaunchError{Path: path, Err: err}
	}
}
