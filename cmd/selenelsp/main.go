package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/corymhall/selenelsp/logger"
	"github.com/corymhall/selenelsp/lsp"
	"github.com/corymhall/selenelsp/rpc"
	"github.com/corymhall/selenelsp/selene"
	"github.com/corymhall/selenelsp/server"
	"github.com/corymhall/selenelsp/settings"
)

var version = "0.0.1"

var (
	logFile      string
	configFile   string
	selenePath   string
	storageDir   string
	maxProcesses int
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:     "selenelsp",
	Short:   "Language server for the selene Lua linter",
	Long:    "selenelsp speaks the Language Server Protocol over stdio and reports selene's findings as diagnostics.",
	Version: version,
	Args:    cobra.NoArgs,
	RunE:    run,
	// stdout carries the protocol.
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write a trace log to this file")
	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML file with default settings")
	rootCmd.Flags().StringVar(&selenePath, "selene-path", "", "path to the selene executable")
	rootCmd.Flags().StringVar(&storageDir, "storage-dir", defaultStorageDir(), "directory holding a managed selene download")
	rootCmd.Flags().IntVar(&maxProcesses, "max-processes", 2, "maximum number of concurrent selene processes")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

func main() {
	defer panicHandler()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	zlog, err := newTraceLogger(logFile, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = zlog.Sync() }()
	stdLog := zap.NewStdLog(zlog)

	opts := settings.Default()
	if configFile != "" {
		if opts, err = settings.LoadFile(configFile); err != nil {
			return err
		}
	}
	if selenePath != "" {
		opts.SelenePath = selenePath
	}

	if verbose {
		logger.ProgramLevel.Set(slog.LevelDebug)
	}

	stream := rpc.NewHeaderStream(os.Stdin, os.Stdout)
	conn := rpc.NewConn(stream, stdLog)
	client := lsp.ClientDispatcher(conn)
	slog.SetDefault(slog.New(logger.NewHandler(client, logger.ProgramLevel)))

	srv := server.New(server.Options{
		Logger:   stdLog,
		Client:   client,
		Tool:     selene.NewRunner(storageDir, maxProcesses),
		Settings: opts,
		Watch:    true,
	})

	ctx := cmd.Context()
	defer func() {
		if err := srv.Shutdown(ctx); err != nil {
			stdLog.Println("Error shutting down server:", err)
		}
	}()
	zlog.Info("serving", zap.String("version", version), zap.String("storageDir", storageDir))
	return conn.Run(ctx, lsp.ServerHandler(srv, rpc.MethodNotFound))
}

// newTraceLogger logs to path, or nowhere when path is empty.
func newTraceLogger(path string, verbose bool) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zlog, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return zlog, nil
}

func defaultStorageDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "selenelsp")
}

func panicHandler() {
	if panicPayload := recover(); panicPayload != nil {
		stack := string(debug.Stack())
		fmt.Fprintln(os.Stderr, "================================================================================")
		fmt.Fprintln(os.Stderr, "selenelsp encountered a fatal error. This is a bug!")
		fmt.Fprintln(os.Stderr, "We would appreciate a report: https://github.com/corymhall/selenelsp/issues/")
		fmt.Fprintln(os.Stderr, "Please provide all of the below text in your report.")
		fmt.Fprintln(os.Stderr, "================================================================================")
		fmt.Fprintf(os.Stderr, "selenelsp Version:    %s\n", version)
		fmt.Fprintf(os.Stderr, "Go Version:           %s\n", runtime.Version())
		fmt.Fprintf(os.Stderr, "Go Compiler:          %s\n", runtime.Compiler)
		fmt.Fprintf(os.Stderr, "Architecture:         %s\n", runtime.GOARCH)
		fmt.Fprintf(os.Stderr, "Operating System:     %s\n", runtime.GOOS)
		fmt.Fprintf(os.Stderr, "Panic:                %s\n\n", panicPayload)
		fmt.Fprintln(os.Stderr, stack)
		os.Exit(1)
	}
}
