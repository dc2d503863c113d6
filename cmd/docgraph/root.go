package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/siherrmann/docgraph"
	"github.com/spf13/cobra"
)

type app struct {
	configFile string
	jsonOutput bool

	// open creates the docgraph for a command, replaced in tests.
	open func(ctx context.Context, cmd *cobra.Command) (*docgraph.DocGraph, error)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	a.open = a.openDocGraph
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "docgraph",
		Short:        "docgraph ingests documents into a search index and a knowledge graph",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newIngestCmd(a),
		newSearchCmd(a),
		newRelatedCmd(a),
	)
	return root
}

func (a *app) openDocGraph(ctx context.Context, cmd *cobra.Command) (*docgraph.DocGraph, error) {
	v, err := newViper(a.configFile)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"search-backend", "graph-backend", "recognizer", "recognizer-url", "log-level", "log-file"} {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			_ = v.BindPFlag(name, flag)
		}
	}

	config, logFile, err := configFromViper(v, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	d, err := docgraph.New(ctx, config)
	if logFile == nil {
		return d, err
	}
	if err != nil {
		_ = logFile.Close()
		return nil, err
	}
	d.OnClose(func(context.Context) error { return logFile.Close() })
	return d, nil
}

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().String("search-backend", "", "search backend: postgres, elastic or memory")
	cmd.Flags().String("graph-backend", "", "graph backend: postgres, neo4j or memory")
	cmd.Flags().String("recognizer", "", "recognizer: remote or hugot")
	cmd.Flags().String("recognizer-url", "", "base URL of the NLP service")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn or error")
	cmd.Flags().String("log-file", "", "also write logs to this rotating file")
}

func (a *app) print(w io.Writer, value any, text func(w io.Writer)) error {
	if a.jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	}
	text(w)
	return nil
}

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	warnColor   = color.New(color.FgYellow)
)

func header(w io.Writer, format string, args ...any) {
	_, _ = headerColor.Fprintf(w, format+"\n", args...)
}

func line(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
