package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the taskbot application
var rootCmd = &cobra.Command{
	Use:   "taskbot",
	Short: "Telegram assistant that manages a personal task list",
	Long: `taskbot is a Telegram bot that lets authorized users manage a personal
task list through natural-language messages.

Each inbound message is interpreted by an OpenAI chat model against the
user's stored task list; the model either answers directly or saves an
updated list through the task-storage API before answering.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "taskbot version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
