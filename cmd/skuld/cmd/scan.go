package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/skulddb/pkg/engine"
	"github.com/ssargent/skulddb/pkg/keys"
	"github.com/ssargent/skulddb/pkg/scan"
)

var (
	scanLimit int
	scanAfter string
)

// scanRow pairs a rendered line with its key so pagination can resume.
type scanRow struct {
	key  keys.Key
	line string
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <prefix>",
	Short: "List records under a key prefix",
	Long: `List records under a key prefix in key order, one line per record.

The prefix is either a bare kind ("todo", "user", "email", "session") or an
owner-scoped range such as "todo:<user_id>".

Example:
  skuld scan user
  skuld scan todo:0c9a7b1e-... --limit 20`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		prefix, err := parsePrefix(args[0])
		if err != nil {
			fmt.Printf("Error parsing prefix: %v\n", err)
			return
		}

		// Get engine from context
		eng, ok := cmd.Context().Value("engine").(*engine.Engine)
		if !ok {
			fmt.Printf("Error: engine not found in context\n")
			return
		}

		afterKey := keys.FromPrefix(prefix)
		var after *keys.Key
		if scanAfter != "" {
			cursor, err := keys.FromBytes([]byte(scanAfter))
			if err != nil {
				fmt.Printf("Error parsing cursor: %v\n", err)
				return
			}
			afterKey = cursor
			after = &cursor
		}

		kind := keys.Kind(strings.SplitN(prefix.String(), ":", 2)[0])
		coll := eng.Collection(collectionFor(kind))

		page, err := scan.From(coll, afterKey,
			func(k keys.Key, value []byte) (scanRow, error) {
				line, err := renderRecord(k, value)
				return scanRow{key: k, line: line}, err
			},
			func(row scanRow) keys.Key { return row.key }).
			Within(prefix).
			WithPagination(scan.Pagination[keys.Key]{After: after, Limit: scanLimit}).
			Collect()
		if err != nil {
			fmt.Printf("Error scanning: %v\n", err)
			return
		}

		for _, row := range page.Items {
			fmt.Println(row.line)
		}
		if page.NextCursor != nil {
			fmt.Printf("More records remain; rerun with --after %s\n", page.NextCursor)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanLimit, "limit", 100, "Maximum records to print")
	scanCmd.Flags().StringVar(&scanAfter, "after", "", "Full key to resume after")
}

// parsePrefix turns "todo" or "todo:<discriminant>" into a scan prefix.
func parsePrefix(raw string) (keys.Prefix, error) {
	parts := strings.Split(strings.TrimSuffix(raw, ":"), ":")

	kind, err := keys.ParseKind(parts[0])
	if err != nil {
		return keys.Prefix{}, err
	}

	switch len(parts) {
	case 1:
		return keys.ForKind(kind), nil
	case 2:
		if parts[1] == "" {
			return keys.Prefix{}, &keys.InvalidKeyError{Raw: raw}
		}
		return keys.NewPrefix(kind, parts[1]), nil
	default:
		return keys.Prefix{}, &keys.InvalidKeyError{Raw: raw}
	}
}
