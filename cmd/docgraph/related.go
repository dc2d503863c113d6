package main

import (
	"io"
	"strings"

	"github.com/siherrmann/docgraph/model"
	"github.com/spf13/cobra"
)

func newRelatedCmd(a *app) *cobra.Command {
	config := model.DefaultQueryConfig()

	cmd := &cobra.Command{
		Use:   "related <entity>...",
		Short: "List entities connected to an entity in the knowledge graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := a.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close(ctx)

			name := strings.Join(args, " ")
			nodes, err := d.Related(ctx, name, &config)
			if err != nil {
				return err
			}

			return a.print(cmd.OutOrStdout(), nodes, func(w io.Writer) {
				if len(nodes) == 0 {
					line(w, "no entities related to %q", name)
					return
				}
				header(w, "related to %q", name)
				for _, n := range nodes {
					line(w, "  [%d] %s (%s)", n.Depth, n.Entity.Name, n.Entity.Label)
				}
			})
		},
	}
	cmd.Flags().IntVar(&config.MaxHops, "max-hops", config.MaxHops, "maximum number of edges to follow")
	cmd.Flags().IntVar(&config.MaxResults, "max-results", config.MaxResults, "maximum number of entities")
	cmd.Flags().StringSliceVar(&config.Predicates, "predicate", nil, "only follow edges with these predicates")
	cmd.Flags().BoolVar(&config.FollowBidirectional, "both", config.FollowBidirectional, "follow edges in both directions")
	addBackendFlags(cmd)
	return cmd
}
