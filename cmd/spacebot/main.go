package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

// Errors are reported once, through printError in main.
var rootCmd = &cobra.Command{
	Use:           "spacebot",
	Short:         "Question answering over a space exploration document",
	Version:       version,
	SilenceErrors: true,
	Long: `spacebot indexes a PDF document and answers questions about it using
retrieval-augmented generation against a local Ollama daemon or the Groq API.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
