// Ensemble CLI — инструмент командной строки для запуска раундов
// и просмотра истории через HTTP API.
//
// Использование:
//
//	ensemble [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	round   Запуск и просмотр раундов
//	action  Просмотр зарегистрированных действий
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Ensemble/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "ensemble",
		Short:         "Ensemble CLI — context coordination tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRoundCmd(clientFn, outputFn),
		cli.NewActionCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
