package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/storyloom/internal/cli"
)

var generateCmd = &cobra.Command{
	Use:   "generate [requirement...]",
	Short: "Generate user stories from a requirement",
	Long: `Generates user stories with acceptance criteria, edge cases and assumptions, followed by
one clarification question. The requirement is taken from the arguments or from --file (PDF, DOCX, TXT, MD).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		text := strings.Join(args, " ")
		if file == "" && strings.TrimSpace(text) == "" {
			return errors.New("a requirement or --file is required")
		}

		app, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		domainContext, _ := cmd.Flags().GetString("context")
		_, err = cli.Generate(cmd.Context(), app, cli.GenerateOptions{
			SessionID: sessionID,
			Text:      text,
			File:      file,
			Context:   domainContext,
		}, outputOptions(cmd))
		return err
	},
}

var answerCmd = &cobra.Command{
	Use:   "answer <session-id> <answer...>",
	Short: "Answer the pending clarification question",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		_, err = cli.Answer(cmd.Context(), app, args[0], strings.Join(args[1:], " "), outputOptions(cmd))
		return err
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <session-id> <question...>",
	Short: "Ask your own question about the story",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		_, err = cli.Ask(cmd.Context(), app, args[0], strings.Join(args[1:], " "), outputOptions(cmd))
		return err
	},
}

var improveCmd = &cobra.Command{
	Use:   "improve <session-id>",
	Short: "Rewrite the story to be clearer and easier to test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		_, err = cli.Improve(cmd.Context(), app, args[0], outputOptions(cmd))
		return err
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Save the story as a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		format, _ := cmd.Flags().GetString("format")
		transcript, _ := cmd.Flags().GetBool("transcript")
		output, _ := cmd.Flags().GetString("output")
		_, err = cli.Export(cmd.Context(), app, cli.ExportOptions{
			SessionID:  args[0],
			Format:     format,
			Transcript: transcript,
			Output:     output,
		}, cmd.OutOrStdout())
		return err
	},
}

func outputOptions(cmd *cobra.Command) cli.OutputOptions {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return cli.OutputOptions{JSON: jsonMode, Writer: cmd.OutOrStdout()}
}

func init() {
	for _, c := range []*cobra.Command{generateCmd, answerCmd, askCmd, improveCmd} {
		c.Flags().Bool("json", false, "Print the state and display blocks as JSON")
		rootCmd.AddCommand(c)
	}
	generateCmd.Flags().StringP("file", "f", "", "Read the requirement from a PDF, DOCX, TXT or MD file")
	generateCmd.Flags().StringP("context", "c", "", "Domain context for the generation")
	generateCmd.Flags().StringP("session", "s", "", "Session ID to create or replace (default: a new UUID)")

	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", "", "docx, html or md (default export.format)")
	exportCmd.Flags().Bool("transcript", false, "Append the clarification dialogue")
	exportCmd.Flags().StringP("output", "o", "", "Target path (default: timestamped name in export.dir)")
}
