package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fachebot/scan-digest/internal/pipeline"
	"github.com/spf13/cobra"
)

func newTextCommand(opts *options) *cobra.Command {
	var renderPath string

	cmd := &cobra.Command{
		Use:   "text [file|-]",
		Short: "Summarize a text file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			svcCtx, err := opts.serviceContext(cmd)
			if err != nil {
				return err
			}
			defer svcCtx.Close()

			mode := pipeline.Mode(svcCtx.Config.Summary.Mode)
			digest := svcCtx.Composer.Compose(cmd.Context(), text, mode, svcCtx.Config.Summary.SentenceFraction)
			fmt.Fprintln(cmd.OutOrStdout(), digest.Text)

			if renderPath != "" {
				if err := svcCtx.Renderer.RenderFile(digest.Text, mode, renderPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Summary image saved to %s\n", renderPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&renderPath, "render", "", "also render the summary to this image path")
	return cmd
}

// readInput 读取文件，参数为空或 "-" 时读取标准输入
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	return string(data), nil
}
