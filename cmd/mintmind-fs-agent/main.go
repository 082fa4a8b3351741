package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jcn363/MintMind/internal/fileioserver"
	"github.com/jcn363/MintMind/internal/logging"
	"github.com/jcn363/MintMind/internal/rpctransport"
)

// rootMain is the entry point for the File I/O agent: it runs until the
// parent process's stdin is closed or the parent is detected as gone.
func rootMain(_ *cobra.Command, _ []string) error {
	level, ok := logging.NameToLevel(rootConfiguration.logLevel)
	if !ok {
		return fmt.Errorf("invalid log level: %s", rootConfiguration.logLevel)
	}
	logger := logging.NewRoot(level)

	transport := rpctransport.New(os.Stdin, os.Stdout, logger)
	server := fileioserver.New(transport, logger)

	stop := make(chan struct{})
	go rpctransport.MonitorParent(rpctransport.ParentPID(), stop, func() {
		logger.Info("parent process no longer exists, exiting")
		os.Exit(0)
	})

	if err := server.Run(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("file i/o agent terminated: %w", err)
	}
	return nil
}

// rootCommand is the file i/o agent's root command.
var rootCommand = &cobra.Command{
	Use:          "mintmind-fs-agent",
	Short:        "Run the out-of-process file I/O agent",
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
