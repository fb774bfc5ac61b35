package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/orvn/orvi/backend/internal/client"
	"github.com/orvn/orvi/backend/internal/tui"
)

func main() {
	root := &cobra.Command{
		Use:   "orvi-chat",
		Short: "Terminal chat client for the ORVI assistant",
		Long:  "Interactive terminal client for the ORVI chat API. Esc cancels an in-flight message, Ctrl+C quits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			timeoutSec, _ := cmd.Flags().GetInt("timeout")

			c := client.New(server, time.Duration(timeoutSec)*time.Second)
			p := tea.NewProgram(tui.New(c), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	root.Flags().String("server", "http://localhost:5000", "chat API base URL")
	root.Flags().Int("timeout", 30, "per-message timeout in seconds")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
