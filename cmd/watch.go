package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	watchQuiet bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the catalog up to date in the background",
	Long: `Watch the asset directories and re-run the catalog when they change.

This command monitors every asset directory (and sync destination) for:
  - media files created, modified, renamed or deleted
  - folders created or removed

Changes are debounced (watch_debounce_ms) and consecutive runs are at least
catalog_cooldown_minutes apart. A catalog run also happens on startup.

Use --quiet to suppress notifications.`,
	Aliases: []string{"daemon"},
	RunE:    runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Suppress catalog notifications")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	loop, err := newWatchLoop(watchQuiet)
	if err != nil {
		return err
	}

	if !watchQuiet {
		fmt.Println(ui.FormatRocket("Starting px watcher..."))
	}
	return loop.Run(ctx)
}
