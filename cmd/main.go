package main

import (
	"context"
	"fmt"
	"os"

	_ "core_innovators/docs"

	"github.com/spf13/cobra"
)

var (
	configDir string
	envFile   string
)

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "core",
	Short: "CORE Innovators home environment monitor",
	Long: `Monitors CO2, CO, air quality, smoke, flame and motion sensors,
drives smart devices through automation rules and a voice-style assistant,
and sends outbound alerts when gas levels cross safety limits.

Subcommands:
  serve   - Run the HTTP/WebSocket API (default)
  ask     - Send one utterance to the assistant
  kb      - Browse the knowledge base`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "Directory holding config.yml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(kbCmd)
}

// @title                       CORE Innovators API
// @version                     1.0
// @description                 Home air quality monitoring, device control and alerting.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
