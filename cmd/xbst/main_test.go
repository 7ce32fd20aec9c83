package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xbst/lib/tree"
	"github.com/benz9527/xbst/observability"
)

func logMessages(t *testing.T, buf *bytes.Buffer) map[string]map[string]any {
	res := make(map[string]map[string]any)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if len(line) == 0 {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if msg, ok := entry["msg"].(string); ok {
			res[msg] = entry
		}
	}
	return res
}

func TestParseArgs(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, err := parseArgs([]string{"-policy", "right", "-delete", "5, 3,", "-log", "json", "5", "3", "5"}, out)
	require.NoError(t, err)
	require.Equal(t, tree.DuplicateAllowRight, cfg.policy)
	require.Equal(t, []int{5, 3, 5}, cfg.values)
	require.Equal(t, []int{5, 3}, cfg.deletes)
	require.Equal(t, observability.NoneExporter, cfg.metrics)

	testcases := []struct {
		name string
		args []string
	}{
		{"policy", []string{"-policy", "left", "1"}},
		{"log", []string{"-log", "xml", "1"}},
		{"value", []string{"1", "two"}},
		{"delete", []string{"-delete", "1,x", "1"}},
		{"level", []string{"-level", "loud", "1"}},
		{"flag", []string{"-unknown"}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			_, err := parseArgs(tc.args, out)
			require.Error(tt, err)
		})
	}
}

func TestRun(t *testing.T) {
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	err := run(
		[]string{"-log", "json", "-level", "debug", "-delete", "5,42", "5", "3", "8", "1", "4", "7", "9"},
		out,
		zapcore.AddSync(logs),
	)
	require.NoError(t, err)

	expected := ` [+]- 5
    [L]- 3
       [L]- 1
       [R]- 4
    [R]- 8
       [L]- 7
       [R]- 9
---
 [+]- 7
    [L]- 3
       [L]- 1
       [R]- 4
    [R]- 8
       [R]- 9
`
	require.Equal(t, expected, out.String())

	msgs := logMessages(t, logs)
	require.Contains(t, msgs, "inorder")
	require.Equal(t, []any{1.0, 3.0, 4.0, 5.0, 7.0, 8.0, 9.0}, msgs["inorder"]["values"])
	require.Equal(t, 42.0, msgs["value not found"]["value"])
	require.Equal(t, []any{1.0, 3.0, 4.0, 7.0, 8.0, 9.0}, msgs["inorder after removal"]["values"])
	require.Equal(t, 6.0, msgs["tree validated"]["len"])
	require.Contains(t, msgs, "removed 1 of 2 values")
	run, ok := msgs["inorder"]["run"].(string)
	require.True(t, ok)
	require.NotEmpty(t, run)
	require.Equal(t, run, msgs["tree validated"]["run"])
}

func TestRun_LogLevel(t *testing.T) {
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, run([]string{"-log", "json", "-level", "warn", "-delete", "9", "1", "2"}, out, zapcore.AddSync(logs)))
	msgs := logMessages(t, logs)
	require.NotContains(t, msgs, "inorder")
	require.NotContains(t, msgs, "tree validated")
	require.Equal(t, 9.0, msgs["value not found"]["value"])
}

func TestRun_DuplicatesAndConsoleMetrics(t *testing.T) {
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	err := run(
		[]string{"-log", "json", "-policy", "reject", "-metrics", "console", "5", "5"},
		out,
		zapcore.AddSync(logs),
	)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.String(), " [+]- 5\n"))
	// The console exporter flushes on stop.
	require.Contains(t, out.String(), "xbst.tree.insert.count")

	msgs := logMessages(t, logs)
	require.Equal(t, 1.0, msgs["values inserted"]["accepted"])
	require.Equal(t, 1.0, msgs["values inserted"]["rejected"])
	require.Equal(t, "reject", msgs["values inserted"]["policy"])
}

func TestRun_PrometheusScrape(t *testing.T) {
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	err := run(
		[]string{"-log", "json", "-metrics", "prometheus", "-delete", "3", "2", "3", "1"},
		out,
		zapcore.AddSync(logs),
	)
	require.NoError(t, err)
	require.Contains(t, out.String(), "xbst_tree_insert_count")
	require.Contains(t, out.String(), "xbst_tree_remove_count")
	require.Contains(t, out.String(), "xbst_tree_size")
}

func TestRun_Empty(t *testing.T) {
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, run([]string{"-log", "json"}, out, zapcore.AddSync(logs)))
	require.Equal(t, "tree is empty\n", out.String())
}

func TestRun_InvalidExporter(t *testing.T) {
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	require.Error(t, run([]string{"-metrics", "statsd", "1"}, out, zapcore.AddSync(logs)))
}
