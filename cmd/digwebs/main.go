// Command digwebs scaffolds digwebs projects and serves them in develop mode.
//
//	digwebs new [-module path] <project-dir>
//	digwebs serve [-config digwebs.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Suhaibinator/digwebs/pkg/generator"
	"github.com/Suhaibinator/digwebs/pkg/metrics"
	"github.com/Suhaibinator/digwebs/pkg/web"
	"go.uber.org/zap"
)

const usage = `usage:
  digwebs new [-module path] <project-dir>
  digwebs serve [-config digwebs.yaml]
`

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return 0
	}

	var err error
	switch args[0] {
	case "new":
		err = runNew(args[1:], stdout, stderr)
	case "serve":
		err = runServe(args[1:], stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func runNew(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(stderr)
	module := fs.String("module", "", "Go module path of the project (default: directory name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	return generator.Generate(fs.Arg(0), generator.Options{
		Module: *module,
		Logger: logger,
		Out:    stdout,
	})
}

func runServe(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "digwebs.yaml", "path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fc, err := web.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	config := web.DefaultConfig()
	if err := fc.Apply(&config); err != nil {
		return err
	}
	if config.Logger == nil {
		config.Logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}
	defer config.Logger.Sync()

	if fc.MetricsPath != "" {
		config.Metrics, err = metrics.NewCollector(metrics.Config{Namespace: "digwebs"})
		if err != nil {
			return err
		}
	}

	app, err := web.NewApp(config)
	if err != nil {
		return err
	}
	server := web.NewServer(app, fc.ServerConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	config.Logger.Info("Shutting down", zap.String("addr", server.Addr()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
