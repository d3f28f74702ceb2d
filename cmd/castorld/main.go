// Command castorld builds a castor store file from an RDF triple stream
// (spec.md §6.3 "castorld [-s SYNTAX] [-f] DB RDF"). The syntax flag is
// accepted for interface parity with tools/castorld/castorld.cpp but is
// presently a no-op: castorld.Build's rdf.Decoder only speaks
// Turtle/N-Triples, the one syntax rdf/ implements (spec.md Non-goals "RDF
// parser ... interfaces only are pinned").
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boutros/castor/castorld"
)

func main() {
	var (
		syntax string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "castorld DB RDF",
		Short: "Build a castor store from an RDF triple stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, rdfPath := args[0], args[1]

			if !force {
				if _, err := os.Stat(dbPath); err == nil {
					return fmt.Errorf("%s already exists (use -f to overwrite)", dbPath)
				}
			}

			in, err := os.Open(rdfPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", rdfPath, err)
			}
			defer in.Close()

			out, err := os.Create(dbPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", dbPath, err)
			}

			log, _ := zap.NewProduction()
			defer log.Sync()

			if err := castorld.Build(in, out, castorld.Options{Logger: log}); err != nil {
				out.Close()
				os.Remove(dbPath)
				return fmt.Errorf("build store: %w", err)
			}
			return out.Close()
		},
	}

	cmd.Flags().StringVarP(&syntax, "syntax", "s", "ntriples", "RDF syntax of the input file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite DB if it already exists")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "castorld:", err)
		os.Exit(2)
	}
}
