package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/flowgraph/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "flowgraph",
	Short: "Chat your way to control flow graphs",
	Long: `flowgraph turns natural language process descriptions into control
flow graphs. An LLM writes the Graphviz DOT code, the server renders it and
reports graph metrics, and a terminal chat lets you refine the result
step by step.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

