package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/flowgraph/internal/tui"
	"github.com/ziadkadry99/flowgraph/internal/widget"
)

var (
	chatServerURL string
	chatStyle     string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal chat widget",
	Long: `Opens an interactive chat against a running flowgraph server. Describe a
process, press enter and the server answers with an explanation, graph
metrics and a rendered graph you can zoom and save.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg, true)
		if err != nil {
			return err
		}
		defer logger.Sync()

		cl, err := newClient(cfg, chatServerURL)
		if err != nil {
			return err
		}
		defer cl.Close()

		ctrl := widget.NewController(cl, logger)
		m := tui.New(cl, ctrl, tui.Options{
			ImagePath: cfg.Client.ImagePath,
			Style:     chatStyle,
			History:   cl,
		})
		return tui.Run(m)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "server", "", "server URL (default from config)")
	chatCmd.Flags().StringVar(&chatStyle, "style", "auto", "markdown style: auto, dark, light, notty")
	rootCmd.AddCommand(chatCmd)
}
