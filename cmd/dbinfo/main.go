// Command dbinfo introspects a castor store file: summary counts, a dump of
// the string table or value dictionary, and single-id lookups. Grounded on
// tools/dbinfo/dbinfo.cpp's flag set (spec.md §6.3 "dbinfo DB [-i | -T | -V |
// -v ID | -s ID]"), rewired onto cobra per the teacher's CLI idiom.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boutros/castor/store"
)

func main() {
	var (
		info     bool
		dumpStr  bool
		dumpVal  bool
		valID    uint32
		strID    uint32
		cacheCap int
	)

	cmd := &cobra.Command{
		Use:   "dbinfo DB",
		Short: "Inspect a castor store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []store.Option
			if cacheCap > 0 {
				opts = append(opts, store.WithCacheCapacity(cacheCap))
			}
			s, err := store.Open(args[0], opts...)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer s.Close()

			switch {
			case valID != 0:
				return printValue(s, valID)
			case strID != 0:
				return printString(s, strID)
			case dumpStr:
				return dumpStrings(s)
			case dumpVal:
				return dumpValues(s)
			default:
				return printSummary(s)
			}
		},
	}

	cmd.Flags().BoolVarP(&info, "info", "i", true, "print summary counts (default)")
	cmd.Flags().BoolVarP(&dumpStr, "strings", "T", false, "dump the string table")
	cmd.Flags().BoolVarP(&dumpVal, "values", "V", false, "dump the value dictionary")
	cmd.Flags().Uint32VarP(&valID, "value", "v", 0, "print the value with the given id")
	cmd.Flags().Uint32VarP(&strID, "string", "s", 0, "print the string with the given id")
	cmd.Flags().IntVar(&cacheCap, "cache", 0, "triple cache capacity in pages (0: store.DefaultCacheCapacity)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dbinfo:", err)
		os.Exit(2)
	}
}

func printSummary(s *store.Store) error {
	hits, misses, size := s.CacheStats()
	fmt.Printf("triples: %d\n", s.TriplesCount())
	fmt.Printf("values:  %d\n", s.ValuesCount())
	fmt.Printf("strings: %d\n", s.StringsCount())
	fmt.Printf("cache:   %d entries, %d hits, %d misses\n", size, hits, misses)
	return nil
}

func dumpStrings(s *store.Store) error {
	for id := uint32(1); id <= s.StringsCount(); id++ {
		if err := printString(s, id); err != nil {
			return err
		}
	}
	return nil
}

func dumpValues(s *store.Store) error {
	for id := uint32(1); id <= s.ValuesCount(); id++ {
		if err := printValue(s, id); err != nil {
			return err
		}
	}
	return nil
}

func printValue(s *store.Store, id uint32) error {
	v, err := s.LookupValue(id)
	if err != nil {
		return fmt.Errorf("lookup value %d: %w", id, err)
	}
	lex, err := s.LookupString(uint32(v.Lexical))
	lexStr := ""
	if err == nil {
		lexStr = string(lex.Bytes)
	}
	fmt.Printf("%d\tcategory=%d\tnumeric=%d\tlexical=%q\n", v.ID, v.Category, v.Numeric, lexStr)
	return nil
}

func printString(s *store.Store, id uint32) error {
	str, err := s.LookupString(id)
	if err != nil {
		return fmt.Errorf("lookup string %d: %w", id, err)
	}
	fmt.Printf("%d\t%s\n", str.ID, str.Bytes)
	return nil
}
