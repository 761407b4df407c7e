package cli

import (
	"fmt"
	"io"

	"github.com/fachebot/scan-digest/internal/processor"
	"github.com/spf13/cobra"
)

func newImageCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "image <path>...",
		Short: "OCR images, summarize them and render the summaries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcCtx, err := opts.serviceContext(cmd)
			if err != nil {
				return err
			}
			defer svcCtx.Close()

			outcomes, err := svcCtx.Processor.ProcessImages(cmd.Context(), args, svcCtx.Config.Watch.Workers)
			for _, outcome := range outcomes {
				printOutcome(cmd.OutOrStdout(), outcome)
			}
			return err
		},
	}
}

func printOutcome(w io.Writer, outcome *processor.Outcome) {
	fmt.Fprintf(w, "== %s ==\n", outcome.Source)
	fmt.Fprintf(w, "Extracted Text:\n%s\n\n", outcome.Extracted)
	fmt.Fprintf(w, "Summary:\n%s\n", outcome.Digest.Text)
	if outcome.Output != "" {
		fmt.Fprintf(w, "Summary image saved to %s\n", outcome.Output)
	}
	fmt.Fprintln(w)
}
