// Command watchgraphd is the watchgraph file-watching daemon: a long-running
// background process that crawls and watches one or more root directories
// and answers query/subscribe/state-assertion commands from clients over a
// local IPC endpoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchgraph/watchgraphd/cmd"
	"github.com/watchgraph/watchgraphd/pkg/mutagen"
)

func rootMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.version {
		fmt.Println(mutagen.Version)
		return nil
	}
	return runMain(command, arguments)
}

var rootCommand = &cobra.Command{
	Use:          "watchgraphd",
	Short:        "Run the watchgraph file-watching daemon",
	Args:         cmd.DisallowArguments,
	Run:          cmd.Mainify(rootMain),
	SilenceUsage: true,
}

var rootConfiguration struct {
	// help indicates whether to show help information and exit.
	help bool
	// version indicates whether to show version information and exit.
	version bool
	// logLevel overrides the daemon's log level (error, warn, info, debug,
	// trace); an empty value keeps the built-in default.
	logLevel string
}

func init() {
	flags := rootCommand.Flags()
	flags.SortFlags = false
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "", "Set the daemon log level (error|warn|info|debug|trace)")
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
