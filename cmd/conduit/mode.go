package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sentry-hq/conduit/pkg/cli"
	"sentry-hq/conduit/pkg/config"
	"sentry-hq/conduit/pkg/netmode"
)

var modeFlags struct {
	by     string
	reason string
	limit  int
	format string
}

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Inspect or change the network mode",
	Long: `Inspect or change the global network mode.

The mode gates every request before any policy is consulted:
  ON        - requests proceed to policy evaluation
  READ_ONLY - read-style operations proceed, writes are denied
  OFF       - every request is denied

Each transition is recorded with who changed it, when, and why.

Examples:
  conduit mode get
  conduit mode set READ_ONLY --by ops --reason "incident 4211"
  conduit mode history --limit 20 --format json`,
}

var modeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current mode",
	RunE:  runModeGet,
}

var modeSetCmd = &cobra.Command{
	Use:   "set <ON|READ_ONLY|OFF>",
	Short: "Change the mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runModeSet,
}

var modeHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent mode transitions",
	RunE:  runModeHistory,
}

func init() {
	rootCmd.AddCommand(modeCmd)
	modeCmd.AddCommand(modeGetCmd, modeSetCmd, modeHistoryCmd)

	modeSetCmd.Flags().StringVar(&modeFlags.by, "by", "", "who is making the change (defaults to the OS user)")
	modeSetCmd.Flags().StringVar(&modeFlags.reason, "reason", "", "why the mode is changing")
	modeHistoryCmd.Flags().IntVar(&modeFlags.limit, "limit", 20, "maximum transitions to show")
	modeHistoryCmd.Flags().StringVar(&modeFlags.format, "format", "text", "output format: text, json")
}

// openMode loads the configuration and opens the mode manager. The
// caller must invoke the returned close function.
func openMode() (*netmode.Manager, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, cli.NewConfigError("", err.Error())
	}
	if err := ensureDir(cfg.Mode.DBPath); err != nil {
		return nil, nil, err
	}
	store, err := netmode.OpenStore(cfg.Mode.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open mode store: %w", err)
	}
	manager, err := netmode.NewManager(store, nil, nil)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return manager, func() { store.Close() }, nil
}

func runModeGet(cmd *cobra.Command, args []string) error {
	manager, closeStore, err := openMode()
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Println(manager.Mode())
	return nil
}

func runModeSet(cmd *cobra.Command, args []string) error {
	target := netmode.Mode(strings.ToUpper(args[0]))
	if !target.Valid() {
		return fmt.Errorf("unknown mode %q, want ON, READ_ONLY, or OFF", args[0])
	}

	by := modeFlags.by
	if by == "" {
		if u, err := user.Current(); err == nil {
			by = u.Username
		} else {
			by = "cli"
		}
	}

	manager, closeStore, err := openMode()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := manager.SetMode(ctx, target, by, modeFlags.reason, nil)
	if err != nil {
		return cli.NewCommandError("mode set", err)
	}
	fmt.Printf("mode %s -> %s (by %s)\n", rec.PreviousMode, rec.NewMode, rec.ChangedBy)
	return nil
}

func runModeHistory(cmd *cobra.Command, args []string) error {
	manager, closeStore, err := openMode()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	history, err := manager.History(ctx, modeFlags.limit, time.Time{}, time.Time{})
	if err != nil {
		return cli.NewCommandError("mode history", err)
	}

	if modeFlags.format == string(cli.FormatJSON) {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, history)
	}
	if len(history) == 0 {
		fmt.Println("no transitions recorded")
		return nil
	}
	for _, rec := range history {
		line := fmt.Sprintf("%s  %s -> %s  by %s",
			rec.ChangedAt.UTC().Format(time.RFC3339), rec.PreviousMode, rec.NewMode, rec.ChangedBy)
		if rec.Reason != "" {
			line += "  (" + rec.Reason + ")"
		}
		fmt.Println(line)
	}
	return nil
}
