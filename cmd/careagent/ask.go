package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Protocol-Lattice/go-careagent/pkg/session"
)

func newAskCmd(log *slog.Logger) *cobra.Command {
	var agentID string
	var sessionID string
	var showToolResult bool

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask a question from the terminal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer a.close()

			if sessionID == "" {
				sessionID = session.NewToken()
			}
			query := strings.Join(args, " ")

			result := a.dispatcher.Dispatch(cmd.Context(), agentID, sessionID, query)
			if result.Error != "" {
				return fmt.Errorf("%s", result.Error)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "[%s]\n%s\n", result.AgentName, result.Response)
			if len(result.ToolsUsed) > 0 {
				fmt.Fprintf(out, "\ntools used: %s\n", strings.Join(result.ToolsUsed, ", "))
			}
			if showToolResult && result.ToolResult != nil {
				pretty, err := json.MarshalIndent(result.ToolResult, "", "  ")
				if err == nil {
					fmt.Fprintf(out, "\ntool result:\n%s\n", pretty)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentID, "agent", "a", "general_assistant", "agent id to dispatch to")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (minted when empty)")
	cmd.Flags().BoolVar(&showToolResult, "tool-result", false, "print the raw tool result")
	return cmd
}
