package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the daraja-mcp application
var rootCmd = &cobra.Command{
	Use:   "daraja-mcp",
	Short: "MCP server for M-Pesa payments and Unstructured document workflows",
	Long: `daraja-mcp is a Model Context Protocol server that lets AI assistants
initiate M-Pesa payments through the Safaricom Daraja API and run document
processing workflows on the Unstructured platform.

The server holds one Daraja access token for the whole process and renews
it in the background before it expires.`,
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
	rootCmd.SetVersionTemplate(`{{printf "daraja-mcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
