package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/storyloom/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive clarification dialogue",
	Long: `Starts an interactive session: describe a requirement, read the generated stories and answer
the clarification questions. Type /help inside the chat for the available commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		// Only a named session is worth keeping between runs.
		app, err := openApp(cmd, sessionID != "")
		if err != nil {
			return err
		}
		defer app.Close()

		domainContext, _ := cmd.Flags().GetString("context")
		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")
		fresh, _ := cmd.Flags().GetBool("fresh")
		format, _ := cmd.Flags().GetString("export-format")

		return cli.RunChat(cmd.Context(), app, cli.ChatOptions{
			SessionID:    sessionID,
			Context:      domainContext,
			Headless:     headless,
			JSON:         jsonMode,
			Fresh:        fresh,
			ExportFormat: format,
			Stdin:        cmd.InOrStdin(),
			Stdout:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume or create")
	chatCmd.Flags().StringP("context", "c", "", "Domain context for new requirements")
	chatCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, no confirmations)")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	chatCmd.Flags().Bool("fresh", false, "Discard the session before starting")
	chatCmd.Flags().String("export-format", "", "Default format of /export")

	// Chat is the default when no command is given.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
