package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/flowgraph/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize flowgraph configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the LLM provider, server port and Graphviz, and writes a .flowgraph.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
