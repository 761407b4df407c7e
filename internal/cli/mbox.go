package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fachebot/scan-digest/internal/mailbox"
	"github.com/fachebot/scan-digest/internal/pipeline"
	"github.com/spf13/cobra"
)

func newMboxCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mbox <file>",
		Short: "Summarize every message of an mbox archive in email mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcCtx, err := opts.serviceContext(cmd)
			if err != nil {
				return err
			}
			defer svcCtx.Close()

			path := args[0]
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			p := svcCtx.Processor.WithMode(pipeline.ModeEmail)
			out := cmd.OutOrStdout()

			count := 0
			err = mailbox.ReadFile(cmd.Context(), path, func(msg *mailbox.Message) error {
				count++
				source := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s-%03d.txt", base, count))
				outcome, err := p.ProcessText(cmd.Context(), source, msg.Text)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "== #%d %s | %s ==\n", count, msg.From, msg.Subject)
				fmt.Fprintf(out, "%s\n", outcome.Digest.Text)
				if outcome.Output != "" {
					fmt.Fprintf(out, "Summary image saved to %s\n", outcome.Output)
				}
				fmt.Fprintln(out)
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%d messages summarized\n", count)
			return nil
		},
	}
}
