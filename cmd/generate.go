package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/flowgraph/internal/chat"
	"github.com/ziadkadry99/flowgraph/internal/client"
	"github.com/ziadkadry99/flowgraph/internal/progress"
	"github.com/ziadkadry99/flowgraph/internal/widget"
)

var (
	generateRepair    bool
	generateOut       string
	generateServerURL string
	generateWS        bool
)

// wsBackend sends generate calls over the websocket instead of HTTP.
type wsBackend struct{ *client.Client }

func (b wsBackend) Generate(ctx context.Context, input string, repair bool) (*chat.GenerateResponse, error) {
	return b.GenerateWS(ctx, input, repair)
}

var generateCmd = &cobra.Command{
	Use:   "generate <description>",
	Short: "Generate one graph and write it to a PNG file",
	Long: `Sends one process description to a running flowgraph server, writes the
rendered graph to a PNG file and prints the explanation and metrics.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if generateOut == "" {
			generateOut = cfg.Client.ImagePath
		}

		logger, err := newLogger(cfg, !verbose)
		if err != nil {
			return err
		}
		defer logger.Sync()

		cl, err := newClient(cfg, generateServerURL)
		if err != nil {
			return err
		}
		defer cl.Close()

		var backend widget.Backend = cl
		if generateWS {
			backend = wsBackend{cl}
		}

		ctrl := widget.NewController(backend, logger)
		ctrl.SetInput(strings.Join(args, " "))
		if generateRepair {
			ctrl.ToggleRepair()
		}

		reporter := progress.NewReporter(os.Stderr)
		reporter.Start("Generating graph")
		ctrl.Generate(cmd.Context())

		msgs := ctrl.Messages()
		last := msgs[len(msgs)-1]
		if last.Role != chat.RoleAssistant {
			reporter.Finish("Generation failed")
			return fmt.Errorf("server returned no answer")
		}
		if strings.HasPrefix(last.Content, "• Error: ") {
			reporter.Finish("Generation failed")
			return fmt.Errorf("%s", strings.TrimPrefix(last.Content, "• Error: "))
		}
		reporter.Finish("Graph generated")
		fmt.Println(last.Content)

		if ctrl.Viewer().HasImage() {
			if err := os.WriteFile(generateOut, ctrl.Viewer().Image(), 0o644); err != nil {
				return fmt.Errorf("writing image: %w", err)
			}
			fmt.Fprintf(os.Stderr, "\nGraph written to %s\n", generateOut)
		}

		nodes, edges, cyclomatic := ctrl.MetricsDisplay()
		fmt.Fprintf(os.Stderr, "Nodes: %s  Edges: %s  Cyclomatic complexity: %s\n", nodes, edges, cyclomatic)
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVarP(&generateRepair, "repair", "r", false, "refine the previous graph instead of starting over")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "PNG output path (default from config)")
	generateCmd.Flags().StringVar(&generateServerURL, "server", "", "server URL (default from config)")
	generateCmd.Flags().BoolVar(&generateWS, "ws", false, "use the websocket endpoint")
	rootCmd.AddCommand(generateCmd)
}
