package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/kvgrid/internal/config"
	"github.com/oakwood-commons/kvgrid/internal/limiter"
	"github.com/oakwood-commons/kvgrid/internal/ui"
	"github.com/oakwood-commons/kvgrid/pkg/loader"
	"github.com/oakwood-commons/kvgrid/pkg/logger"
	"github.com/oakwood-commons/kvgrid/pkg/settings"
)

// errShowHelp is returned by readDataset when there is nothing to load.
var errShowHelp = errors.New("no input provided")

type rootOptions struct {
	configFile  string
	format      string
	idField     string
	autoID      bool
	path        string
	limit       limiter.Config
	filter      string
	sort        string
	groupBy     []string
	aggregates  []string
	collapsed   bool
	pageSize    int
	page        int
	frozen      int
	editable    bool
	theme       string
	width       int
	height      int
	scroll      int
	debug       bool
	logFile     string
	noColor     bool
	interactive bool
	snapshot    bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   settings.CliBinaryName + " [file]",
		Short: "Browse and edit records in a windowed terminal grid",
		Long: "kvgrid loads JSON, NDJSON, YAML, TOML or CSV records and shows them in a\n" +
			"virtualized grid with sorting, CEL filtering, grouping, paging and cell editing.\n" +
			"On a terminal the grid is interactive; otherwise a snapshot of the first\n" +
			"screen is printed.",
		Example: "\n  kvgrid items.json\n  kvgrid items.csv --sort price:desc --group-by cat --aggregate sum:price\n" +
			"  cat items.ndjson | kvgrid -i --filter 'item.price > 2'\n  kvgrid items.yaml --snapshot --width 100 --height 30\n",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupRun(cmd, args, o)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrid(cmd, args, o)
		},
	}

	f := cmd.Flags()
	cmd.PersistentFlags().StringVar(&o.configFile, "config-file", "", "path to a YAML or TOML config file")
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&o.logFile, "log-file", "", "write logs to this file (interactive runs discard logs otherwise)")
	f.StringVar(&o.format, "format", "", "input format: json|ndjson|yaml|toml|csv (default: detect)")
	f.StringVar(&o.idField, "id-field", "", "field holding the unique item id")
	f.BoolVar(&o.autoID, "auto-id", false, "generate ids for items that have none")
	f.StringVar(&o.path, "path", "", "path to the records inside each document, e.g. data.items")
	f.IntVar(&o.limit.Limit, "limit", 0, "load at most N records")
	f.IntVar(&o.limit.Offset, "offset", 0, "skip the first N records")
	f.IntVar(&o.limit.Tail, "tail", 0, "load only the last N records (excludes --limit)")
	f.StringVar(&o.filter, "filter", "", "CEL filter over item, for example 'item.price > 2'")
	f.StringVar(&o.sort, "sort", "", "sort by field, field:asc or field:desc")
	f.StringArrayVar(&o.groupBy, "group-by", nil, "group by field (repeat for nested groups)")
	f.StringArrayVar(&o.aggregates, "aggregate", nil, "group totals as kind:field, kind one of sum|avg|min|max|count")
	f.BoolVar(&o.collapsed, "collapsed", false, "start with groups collapsed")
	f.IntVar(&o.pageSize, "page-size", 0, "items per page (0 disables paging)")
	f.IntVar(&o.page, "page", 0, "initial page, zero based")
	f.IntVar(&o.frozen, "frozen", -1, "last pinned column index (-1 for none)")
	f.BoolVar(&o.editable, "editable", false, "allow cell editing")
	f.StringVar(&o.theme, "theme", "", "theme name from the config")
	f.IntVar(&o.width, "width", 0, "grid width in columns (default: terminal width)")
	f.IntVar(&o.height, "height", 0, "grid height in lines (default: terminal height)")
	f.IntVar(&o.scroll, "scroll", 0, "snapshot: first row shown")
	f.BoolVar(&o.noColor, "no-color", false, "disable color output")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "always start the interactive grid")
	f.BoolVar(&o.snapshot, "snapshot", false, "print one frame and exit")
	cmd.MarkFlagsMutuallyExclusive("interactive", "snapshot")

	cmd.Version = versionString()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.AddCommand(newVersionCmd(), newConfigCmd(o))
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func versionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s)", settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime)
}

// setupRun resolves the run settings and attaches them and the logger to
// the command context.
func setupRun(cmd *cobra.Command, args []string, o *rootOptions) error {
	run := settings.NewCliParams()
	run.NoColor = o.noColor
	run.LogFile = o.logFile
	switch {
	case o.interactive:
		run.Mode = settings.ModeInteractive
	case o.snapshot:
		run.Mode = settings.ModeSnapshot
	}
	if o.debug {
		run.MinLogLevel = -2
	}
	if len(args) == 1 && args[0] != "-" {
		run.Source.Path = args[0]
	} else {
		run.Source.FromStdin = true
	}

	var out io.Writer = os.Stderr
	if run.LogFile != "" {
		f, err := logger.OpenFile(run.LogFile)
		if err != nil {
			return err
		}
		out = f
	} else if cmd.Name() == settings.CliBinaryName && run.Interactive(stdoutIsTerminal()) {
		out = io.Discard
	}
	lgr := logger.Setup(logger.Options{Level: run.MinLogLevel, Output: out})
	lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = settings.IntoContext(logger.WithLogger(ctx, lgr), run)
	cmd.SetContext(ctx)
	return nil
}

func runGrid(cmd *cobra.Command, args []string, o *rootOptions) error {
	ctx := cmd.Context()
	lgr := logger.FromContext(ctx)
	run, ok := settings.FromContext(ctx)
	if !ok {
		run = settings.NewCliParams()
	}

	cfg, err := loadConfig(cmd.Flags(), o)
	if err != nil {
		return err
	}
	format, err := parseFormat(o.format)
	if err != nil {
		return err
	}
	if err := o.limit.Validate(); err != nil {
		return err
	}
	ds, err := readDataset(cmd.InOrStdin(), args, format, loader.Options{IDField: cfg.Data.IDField, AutoID: cfg.Data.AutoID, Path: cfg.Data.Path})
	if errors.Is(err, errShowHelp) {
		return cmd.Help()
	}
	if err != nil {
		return err
	}
	if o.limit.IsActive() {
		loaded := len(ds.Items)
		ds.Items = limiter.Apply(o.limit, ds.Items)
		lgr.V(1).Info("limited records", "loaded", loaded, "kept", len(ds.Items))
	}
	lgr.V(1).Info("loaded items", "count", len(ds.Items), "fields", len(ds.Fields), "path", run.Source.Path, "stdin", run.Source.FromStdin)

	p := ui.Params{
		Dataset: ds,
		Config:  cfg,
		Logger:  *lgr,
		Width:   o.width,
		Height:  o.height,
		NoColor: run.NoColor,
	}
	if run.Interactive(stdoutIsTerminal()) {
		opts, release := programOptions()
		defer release()
		return ui.Run(p, opts...)
	}
	return printSnapshot(cmd.OutOrStdout(), p, o.scroll)
}

// loadConfig merges the config file over the defaults and the changed flags
// over both.
func loadConfig(flags *pflag.FlagSet, o *rootOptions) (config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return cfg, err
	}
	applyFlags(flags, &cfg, o)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyFlags copies the flags the user set onto cfg. Unset flags keep the
// configured values.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config, o *rootOptions) {
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("id-field") {
		cfg.Data.IDField = o.idField
	}
	if changed("auto-id") {
		cfg.Data.AutoID = o.autoID
	}
	if changed("path") {
		cfg.Data.Path = o.path
	}
	if changed("filter") {
		cfg.View.Filter = o.filter
	}
	if changed("sort") {
		cfg.View.Sort = o.sort
	}
	if changed("group-by") {
		cfg.View.GroupBy = o.groupBy
	}
	if changed("aggregate") {
		cfg.View.Aggregates = o.aggregates
	}
	if changed("collapsed") {
		cfg.View.Collapsed = o.collapsed
	}
	if changed("page-size") {
		cfg.View.PageSize = o.pageSize
	}
	if changed("page") {
		cfg.View.Page = o.page
	}
	if changed("frozen") {
		cfg.View.FrozenColumn = o.frozen
	}
	if changed("editable") {
		cfg.Grid.Editable = o.editable
	}
	if changed("theme") {
		cfg.UI.Theme = o.theme
	}
}

func parseFormat(s string) (loader.Format, error) {
	switch f := loader.Format(strings.ToLower(strings.TrimSpace(s))); f {
	case loader.FormatAuto, loader.FormatJSON, loader.FormatNDJSON, loader.FormatYAML, loader.FormatTOML, loader.FormatCSV:
		return f, nil
	}
	return loader.FormatAuto, fmt.Errorf("invalid --format %q (expected json, ndjson, yaml, toml or csv)", s)
}

// readDataset loads the file argument, or stdin when the argument is "-" or
// absent and stdin is a pipe.
func readDataset(in io.Reader, args []string, format loader.Format, opts loader.Options) (*loader.Dataset, error) {
	if len(args) == 1 && args[0] != "-" {
		if format == loader.FormatAuto {
			return loader.LoadFile(args[0], opts)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		return loader.Load(f, format, opts)
	}
	if len(args) == 0 && !stdinIsPiped() {
		return nil, errShowHelp
	}
	return loader.Load(in, format, opts)
}

func printSnapshot(w io.Writer, p ui.Params, scroll int) error {
	if p.Width <= 0 || p.Height <= 0 {
		tw, th := ui.TerminalSize()
		if p.Width <= 0 {
			p.Width = tw
		}
		if p.Height <= 0 {
			p.Height = th
		}
	}
	if !stdoutIsTerminal() {
		p.NoColor = true
	}
	m, err := ui.New(p)
	if err != nil {
		return err
	}
	defer m.Close()
	out, err := ui.Snapshot(m, ui.SnapshotOptions{ScrollTo: scroll, ActiveRow: -1})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
			return err
		},
	}
}

func newConfigCmd(o *rootOptions) *cobra.Command {
	var defaults bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the merged configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if defaults {
				_, err := cmd.OutOrStdout().Write(config.DefaultConfigYAML())
				return err
			}
			cfg, err := config.Load(o.configFile)
			if err != nil {
				return err
			}
			out, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&defaults, "default", false, "print the built-in defaults")
	return cmd
}
