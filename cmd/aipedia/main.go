// Package main is the entry point for the aipedia CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"aipedia/internal/app"
)

// version is set at build time via ldflags.
var version = "dev"

// v carries defaults, the optional config file, and the environment.
var v = app.NewViper()

var rootCmd = &cobra.Command{
	Use:   "aipedia",
	Short: "An encyclopedia where every article is generated on request",
	Long: `aipedia serves Wikipedia-style articles written by a language model the
moment a topic is requested. Keywords in each article link to further
generated articles.

Run "aipedia serve" for the web site or "aipedia generate <topic>" to print
a single article.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		return app.ReadConfigFile(v, cfgFile)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./aipedia.yaml or ~/.config/aipedia/aipedia.yaml)")
	rootCmd.PersistentFlags().String("provider", "", "generation provider: openai, anthropic, or stub (default: first with an API key)")
	rootCmd.PersistentFlags().String("model", "", "model identifier for the OpenAI provider")
	_ = v.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = v.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
