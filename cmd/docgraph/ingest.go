package main

import (
	"errors"
	"io"

	"github.com/siherrmann/docgraph/model"
	"github.com/spf13/cobra"
)

func newIngestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest documents into the search index and the knowledge graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := a.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close(ctx)

			results := []*model.IngestResult{}
			var errs []error
			for _, path := range args {
				result, err := d.IngestFile(ctx, path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				results = append(results, result)
			}

			err = a.print(cmd.OutOrStdout(), results, func(w io.Writer) {
				for _, r := range results {
					header(w, "%s", r.Path)
					line(w, "  entities:  %d", r.EntityCount)
					line(w, "  relations: %d", r.RelationCount)
					line(w, "  graph:     %d nodes created, %d edges created", r.Graph.NodesCreated, r.Graph.EdgesCreated)
					for _, c := range r.Warnings {
						_, _ = warnColor.Fprintf(w, "  label conflict: %q kept %s, rejected %s\n", c.Text, c.Kept, c.Rejected)
					}
				}
			})
			if err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
	addBackendFlags(cmd)
	return cmd
}
