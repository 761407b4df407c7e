package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent processing runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcCtx, err := opts.serviceContext(cmd)
			if err != nil {
				return err
			}
			defer svcCtx.Close()

			if svcCtx.RunModel == nil {
				return fmt.Errorf("Storage.Path 未配置，没有处理记录")
			}

			runs, err := svcCtx.RunModel.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("查询处理记录失败: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSTATUS\tMODE\tSENTENCES\tFALLBACK\tSOURCE\tOUTPUT")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d -> %d\t%s\t%s\t%s\n",
					run.CreatedAt.Local().Format(time.DateTime), run.Status, run.Mode,
					run.SentencesIn, run.SentencesOut, dash(run.Fallback), run.Source, dash(run.Output))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
