package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/pbaille/journal/internal/api"
	"github.com/pbaille/journal/internal/config"
	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/journal"
	"github.com/pbaille/journal/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the persistent flags shared by every command
type options struct {
	configPath string
	dataPath   string
	backend    string
	flavor     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "journal",
		Short:        "Timestamped journal with labels",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath(), "config file")
	flags.StringVar(&opts.dataPath, "data", "", "data file (overrides config)")
	flags.StringVar(&opts.backend, "backend", "", "storage backend: json or sqlite")
	flags.StringVar(&opts.flavor, "flavor", "", "entry flavor: events or checkpoints")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(labelCmd(opts))
	rootCmd.AddCommand(addCmd(opts))
	rootCmd.AddCommand(rmCmd(opts))
	rootCmd.AddCommand(showCmd(opts))
	rootCmd.AddCommand(tagCmd(opts, true))
	rootCmd.AddCommand(tagCmd(opts, false))
	rootCmd.AddCommand(logCmd(opts))
	rootCmd.AddCommand(betweenCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))

	return rootCmd
}

// loadConfig layers flags that were set explicitly over the config file
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataPath = opts.dataPath
	}
	if flags.Changed("backend") {
		cfg.Backend = opts.backend
	}
	if flags.Changed("flavor") {
		cfg.Flavor = opts.flavor
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func getJournal(cmd *cobra.Command, opts *options) (*journal.Journal, config.Config, logging.Logger, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, cfg, nil, err
	}

	log := logging.New(cmd.ErrOrStderr(), cfg.Level())
	j, err := journal.Open(cmd.Context(), cfg, log)
	if err != nil {
		return nil, cfg, nil, err
	}
	return j, cfg, log, nil
}

func labelCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage labels",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [short] [long name]",
		Short: "Add a label",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			id, err := j.AddLabel(cmd.Context(), strings.Join(args[1:], " "), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added label %s (id %d)\n", args[0], id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [short]",
		Short: "Remove a label and strip it from every entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			if err := j.RemoveLabel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed label %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			out := cmd.OutOrStdout()
			labels := j.Labels(cmd.Context())
			if len(labels) == 0 {
				fmt.Fprintln(out, "No labels yet. Use 'journal label add' to create one.")
				return nil
			}
			for _, l := range labels {
				fmt.Fprintf(out, "%3d  %-12s %s\n", l.ID, l.ShortName, l.LongName)
			}
			return nil
		},
	})

	return cmd
}

func addCmd(opts *options) *cobra.Command {
	var (
		at     int64
		labels []string
	)

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add an entry, now unless --at is given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			ts := time.Now().Unix()
			if cmd.Flags().Changed("at") {
				ts = at
			}

			if err := j.AddEntry(cmd.Context(), ts, strings.Join(args, " "), labels); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry @%d\n", ts)
			return nil
		},
	}

	cmd.Flags().Int64Var(&at, "at", 0, "unix timestamp of the entry")
	cmd.Flags().StringArrayVarP(&labels, "label", "l", nil, "label short name (repeatable)")
	return cmd
}

func rmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Remove an entry by position or @timestamp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseEntryID(args[0])
			if err != nil {
				return err
			}

			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			v, found, err := j.RemoveEntry(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("entry not found: %s", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed entry @%d\n", v.Timestamp)
			return nil
		},
	}
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show entry details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseEntryID(args[0])
			if err != nil {
				return err
			}

			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			v, found := j.Entry(cmd.Context(), id)
			if !found {
				return fmt.Errorf("entry not found: %s", id)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Timestamp: %d (%s)\n", v.Timestamp, time.Unix(v.Timestamp, 0).UTC().Format(time.DateTime))
			fmt.Fprintf(out, "Position:  %d\n", v.Position)
			fmt.Fprintf(out, "Duration:  %s\n", formatDuration(v.Duration))
			fmt.Fprintf(out, "Text:\n%s\n", v.Text)

			if len(v.Labels) > 0 {
				fmt.Fprintf(out, "\nLabels:\n")
				for _, l := range v.Labels {
					fmt.Fprintf(out, "  - %s\n", l)
				}
			}
			return nil
		},
	}
}

// tagCmd builds "tag" when attach is true and "untag" otherwise
func tagCmd(opts *options, attach bool) *cobra.Command {
	use, short, verb := "tag", "Attach labels to an entry", "Tagged"
	if !attach {
		use, short, verb = "untag", "Detach labels from an entry", "Untagged"
	}

	return &cobra.Command{
		Use:   use + " [id] [labels...]",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseEntryID(args[0])
			if err != nil {
				return err
			}

			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			apply := j.Tag
			if !attach {
				apply = j.Untag
			}
			if err := apply(cmd.Context(), id, args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s entry %s\n", verb, id)
			return nil
		},
	}
}

func logCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List recent entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			entries := j.Log(cmd.Context(), limit)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries yet. Use 'journal add' to create one.")
				return nil
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")
	return cmd
}

func betweenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "between [start] [end]",
		Short: "List entries strictly between two unix timestamps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse start: %w", err)
			}
			end, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parse end: %w", err)
			}

			j, _, _, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			entries := j.Between(cmd.Context(), start, end)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries in range.")
				return nil
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func serveCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, cfg, log, err := getJournal(cmd, opts)
			if err != nil {
				return err
			}
			defer j.Close()

			if !cmd.Flags().Changed("addr") {
				addr = cfg.Addr
			}
			return api.New(j, addr, log).Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides config)")
	return cmd
}

func printEntries(out io.Writer, entries []journal.EntryView) {
	for _, e := range entries {
		labels := ""
		if len(e.Labels) > 0 {
			labels = "  [" + strings.Join(e.Labels, ", ") + "]"
		}
		fmt.Fprintf(out, "%3d  @%d  %8s  %s%s\n", e.Position, e.Timestamp, formatDuration(e.Duration), truncate(e.Text, 60), labels)
	}
}

func formatDuration(d *int64) string {
	if d == nil {
		return "-"
	}
	return (time.Duration(*d) * time.Second).String()
}

// truncate flattens newlines and cuts s to at most max runes
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
