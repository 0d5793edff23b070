package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestListQueryFromFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addListFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--page", "2", "--size", "25", "--sort", "name", "--order", "desc",
		"--filter", "year=2024", "--filter", "clientId=c-1",
	}))

	q, err := listQueryFromFlags(cmd)
	require.NoError(t, err)
	require.Equal(t, 2, q.Page)
	require.Equal(t, 25, q.PageSize)
	require.Equal(t, "name", q.SortBy)
	require.Equal(t, "desc", q.SortOrder)
	require.Equal(t, map[string]string{"year": "2024", "clientId": "c-1"}, q.Filters)
}

func TestListQueryFromFlags_BadFilter(t *testing.T) {
	cmd := &cobra.Command{}
	addListFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--filter", "no-equals-sign"}))

	_, err := listQueryFromFlags(cmd)
	require.ErrorContains(t, err, "field=value")
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-03-01")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2024-03-01T12:30:00Z")
	require.NoError(t, err)
	require.Equal(t, 12, got.Hour())

	got, err = parseDate("")
	require.NoError(t, err)
	require.True(t, got.IsZero())

	_, err = parseDate("next tuesday")
	require.Error(t, err)
}

func TestPrintJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, printJSON(buf, map[string]int{"total": 3}))
	require.Equal(t, "{\n  \"total\": 3\n}\n", buf.String())
}
