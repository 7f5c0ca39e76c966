// Command watchgraphctl is a minimal client for exercising watchgraphd
// manually: it dials the daemon's IPC endpoint, sends one command as a
// JSON-encoded PDU, prints the decoded response, and exits. It does not
// attempt to cover every command's argument shape or offer the trigger/
// subscribe-and-stream workflows a full client would; those are an
// external collaborator's concern.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchgraph/watchgraphd/cmd"
	"github.com/watchgraph/watchgraphd/pkg/bser"
	"github.com/watchgraph/watchgraphd/pkg/daemon"
	"github.com/watchgraph/watchgraphd/pkg/ipc"
	"github.com/watchgraph/watchgraphd/pkg/platform/terminal"
)

func runMain(_ *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		return fmt.Errorf("at least one argument (the command name) is required")
	}

	endpoint, err := daemon.EndpointPath()
	if err != nil {
		return fmt.Errorf("unable to compute IPC endpoint path: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ipc.RecommendedDialTimeout)
	defer cancel()
	conn, err := ipc.DialContext(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("unable to connect to watchgraphd: %w", err)
	}
	defer conn.Close()

	request := make([]interface{}, len(arguments))
	for i, arg := range arguments {
		var decoded interface{}
		if err := json.Unmarshal([]byte(arg), &decoded); err != nil {
			decoded = arg
		}
		request[i] = decoded
	}

	if err := bser.WritePDU(conn, bser.EncodingJSON, bser.FromNative(request)); err != nil {
		return fmt.Errorf("unable to send request: %w", err)
	}

	pdu, err := bser.ReadPDU(bufio.NewReader(conn))
	if err != nil {
		return fmt.Errorf("unable to read response: %w", err)
	}

	encoded, err := json.MarshalIndent(bser.ToNative(pdu.Value), "", "  ")
	if err != nil {
		return fmt.Errorf("unable to format response: %w", err)
	}
	// Responses can embed arbitrary file names from the watched tree, so
	// neutralize any terminal control characters before printing them.
	fmt.Println(terminal.NeutralizeControlCharacters(string(encoded)))
	return nil
}

var rootCommand = &cobra.Command{
	Use:          "watchgraphctl <command> [args...]",
	Short:        "Send a single command to watchgraphd and print its response",
	RunE:         runMain,
	SilenceUsage: true,
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		cmd.Error(err)
		os.Exit(1)
	}
}
