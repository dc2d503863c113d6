// Command docgraph ingests documents and queries the search view and the graph.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
