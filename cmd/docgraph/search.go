package main

import (
	"io"
	"strings"

	"github.com/siherrmann/docgraph/model"
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search ingested documents by content and entity text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := a.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close(ctx)

			hits, err := d.Search(ctx, strings.Join(args, " "), topK)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), hits, func(w io.Writer) {
				if len(hits) == 0 {
					line(w, "no documents found")
					return
				}
				for i, h := range hits {
					line(w, "%2d. %s (%.4f)", i+1, h.Path, h.Score)
				}
			})
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", model.DefaultQueryConfig().TopK, "maximum number of results")
	addBackendFlags(cmd)
	return cmd
}
