package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dealgrid/dealgrid/internal/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readAll reads a file argument, with "-" standing for stdin.
func readAll(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

// pageOut is the uniform list output shape.
type pageOut[T any] struct {
	Data       []T        `json:"data"`
	Pagination model.Page `json:"pagination"`
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 0, "page number, 1-based")
	cmd.Flags().Int("size", 0, "page size")
	cmd.Flags().String("sort", "", "sort field")
	cmd.Flags().String("order", "", `sort direction: "asc" or "desc"`)
	cmd.Flags().StringArray("filter", nil, "field=value filter, repeatable")
}

func listQueryFromFlags(cmd *cobra.Command) (model.ListQuery, error) {
	var q model.ListQuery
	q.Page, _ = cmd.Flags().GetInt("page")
	q.PageSize, _ = cmd.Flags().GetInt("size")
	q.SortBy, _ = cmd.Flags().GetString("sort")
	q.SortOrder, _ = cmd.Flags().GetString("order")
	filters, _ := cmd.Flags().GetStringArray("filter")
	for _, f := range filters {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return q, fmt.Errorf("bad --filter %q, want field=value", f)
		}
		if q.Filters == nil {
			q.Filters = map[string]string{}
		}
		q.Filters[k] = v
	}
	return q, nil
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
