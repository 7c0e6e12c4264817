package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvgrid/internal/config"
	"github.com/oakwood-commons/kvgrid/pkg/loader"
)

const fruitJSON = `[
  {"id": 1, "name": "apple", "price": 1.5, "cat": "fruit"},
  {"id": 2, "name": "banana", "price": 0.25, "cat": "fruit"},
  {"id": 3, "name": "carrot", "price": 3, "cat": "veg"}
]`

// runCmd executes a fresh root command with stdout treated as a pipe and
// the user config directory isolated.
func runCmd(t *testing.T, stdin io.Reader, piped bool, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	origTerm, origPiped := stdoutIsTerminal, stdinIsPiped
	stdoutIsTerminal = func() bool { return false }
	stdinIsPiped = func() bool { return piped }
	t.Cleanup(func() {
		stdoutIsTerminal, stdinIsPiped = origTerm, origPiped
	})

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSnapshotFromFile(t *testing.T) {
	path := writeFile(t, "items.json", fruitJSON)
	out, err := runCmd(t, nil, false, path, "--snapshot", "--width", "60", "--height", "8")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "name")
	assert.Contains(t, lines[0], "price")
	assert.Contains(t, out, "apple")
	assert.Contains(t, out, "carrot")
	assert.Contains(t, lines[7], "3 rows")
	assert.NotContains(t, out, "\x1b[", "snapshot to a pipe is plain text")
}

func TestSnapshotFromStdin(t *testing.T) {
	csv := "id,name,price\n1,apple,1.5\n2,banana,0.25\n"
	out, err := runCmd(t, strings.NewReader(csv), true, "--format", "csv", "--width", "50", "--height", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "banana")
	assert.Contains(t, out, "2 rows")
}

func TestSnapshotSortAndFilterFlags(t *testing.T) {
	path := writeFile(t, "items.json", fruitJSON)

	out, err := runCmd(t, nil, false, path, "--sort", "price:desc", "--width", "60", "--height", "8")
	require.NoError(t, err)
	carrot, apple, banana := strings.Index(out, "carrot"), strings.Index(out, "apple"), strings.Index(out, "banana")
	assert.Less(t, carrot, apple)
	assert.Less(t, apple, banana)
	assert.Contains(t, out, "sort: price desc")

	out, err = runCmd(t, nil, false, path, "--filter", "item.price > 1", "--width", "60", "--height", "8")
	require.NoError(t, err)
	assert.NotContains(t, out, "banana")
	assert.Contains(t, out, "2 rows")
}

func TestSnapshotLimitFlags(t *testing.T) {
	path := writeFile(t, "items.json", fruitJSON)
	out, err := runCmd(t, nil, false, path, "--offset", "1", "--limit", "1", "--width", "60", "--height", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "banana")
	assert.NotContains(t, out, "apple")
	assert.NotContains(t, out, "carrot")
	assert.Contains(t, out, "1 row")

	out, err = runCmd(t, nil, false, path, "--tail", "1", "--width", "60", "--height", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "carrot")
	assert.NotContains(t, out, "banana")
}

func TestSnapshotPathFlag(t *testing.T) {
	path := writeFile(t, "catalog.yaml", "catalog:\n  name: shop\n  items:\n    - {id: a, name: apple}\n    - {id: b, name: banana}\n")
	out, err := runCmd(t, nil, false, path, "--path", "catalog.items", "--width", "40", "--height", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "banana")
	assert.Contains(t, out, "2 rows")

	_, err = runCmd(t, nil, false, path, "--path", "catalog.nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.nope")
}

func TestSnapshotGroupBy(t *testing.T) {
	path := writeFile(t, "items.json", fruitJSON)
	out, err := runCmd(t, nil, false, path, "--group-by", "cat", "--aggregate", "sum:price", "--width", "70", "--height", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "fruit")
	assert.Contains(t, out, "veg")
}

func TestRunErrors(t *testing.T) {
	path := writeFile(t, "items.json", fruitJSON)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad format", args: []string{path, "--format", "xml"}, want: "invalid --format"},
		{name: "unknown theme", args: []string{path, "--theme", "nope"}, want: "ui.theme"},
		{name: "bad sort", args: []string{path, "--sort", "price:sideways"}, want: "sort"},
		{name: "exclusive modes", args: []string{path, "-i", "--snapshot"}, want: "interactive"},
		{name: "limit with tail", args: []string{path, "--limit", "1", "--tail", "1"}, want: "mutually exclusive"},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "none.json")}, want: "none.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, nil, false, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNoInputShowsHelp(t *testing.T) {
	out, err := runCmd(t, nil, false)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "--group-by")
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	o := &rootOptions{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVar(&o.sort, "sort", "", "")
	fs.StringVar(&o.filter, "filter", "", "")
	fs.IntVar(&o.pageSize, "page-size", 0, "")
	fs.BoolVar(&o.editable, "editable", false, "")
	fs.StringArrayVar(&o.groupBy, "group-by", nil, "")
	require.NoError(t, fs.Parse([]string{"--sort", "name:desc", "--editable", "--group-by", "a", "--group-by", "b"}))

	cfg := config.Config{
		View: config.ViewConfig{Sort: "price", Filter: "item.price > 1", PageSize: 10},
	}
	applyFlags(fs, &cfg, o)

	assert.Equal(t, "name:desc", cfg.View.Sort)
	assert.Equal(t, "item.price > 1", cfg.View.Filter)
	assert.Equal(t, 10, cfg.View.PageSize)
	assert.True(t, cfg.Grid.Editable)
	assert.Equal(t, []string{"a", "b"}, cfg.View.GroupBy)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    loader.Format
		wantErr bool
	}{
		{in: "", want: loader.FormatAuto},
		{in: "JSON", want: loader.FormatJSON},
		{in: " ndjson ", want: loader.FormatNDJSON},
		{in: "csv", want: loader.FormatCSV},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, nil, false, "version")
	require.NoError(t, err)
	assert.Equal(t, versionString()+"\n", out)
	assert.True(t, strings.HasPrefix(out, "kvgrid "))
}

func TestConfigCommand(t *testing.T) {
	out, err := runCmd(t, nil, false, "config", "--default")
	require.NoError(t, err)
	assert.Equal(t, string(config.DefaultConfigYAML()), out)

	path := writeFile(t, "kvgrid.yaml", "ui:\n  tick_ms: 40\n")
	out, err = runCmd(t, nil, false, "config", "--config-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "tick_ms: 40")
	assert.Contains(t, out, "row_height: 1")

	path = writeFile(t, "kvgrid.toml", "[view]\nsort = \"name\"\n")
	out, err = runCmd(t, nil, false, "config", "--config-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sort: name")
}
