package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcn363/MintMind/internal/logging"
	"github.com/jcn363/MintMind/internal/rpctransport"
	"github.com/jcn363/MintMind/internal/watchserver"
)

// rootMain is the entry point for the watcher agent: it runs until the
// parent process's stdin is closed or the parent is detected as gone,
// tearing down every active watch on the way out.
func rootMain(_ *cobra.Command, _ []string) error {
	level, ok := logging.NameToLevel(rootConfiguration.logLevel)
	if !ok {
		return fmt.Errorf("invalid log level: %s", rootConfiguration.logLevel)
	}
	logger := logging.NewRoot(level)

	transport := rpctransport.New(os.Stdin, os.Stdout, logger)
	server := watchserver.New(transport, logger)

	stop := make(chan struct{})
	go rpctransport.MonitorParent(rpctransport.ParentPID(), stop, func() {
		logger.Info("parent process no longer exists, exiting")
		os.Exit(0)
	})

	if err := server.Run(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("watcher agent terminated: %w", err)
	}
	return nil
}

// rootCommand is the watcher agent's root command.
var rootCommand = &cobra.Command{
	Use:          "mintmind-watcher-agent",
	Short:        "Run the out-of-process universal watcher agent",
	Args:         cobra.NoArgs,
	RunE:         rootMain,
	SilenceUsage: true,
}

// rootConfiguration stores configuration for the root command.
var rootConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// logLevel controls the verbosity of local logging.
	logLevel string
}

func init() {
	flags := rootCommand.Flags()
	flags.SortFlags = false

	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "info", "Set the logging level (off, error, warn, info, debug, trace)")
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
