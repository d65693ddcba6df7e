package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	syncSubFolders bool
	syncDelete     bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror media between directories",
	Long: `Manage and run directory sync definitions.

A definition copies media files missing from the destination, optionally
recursing into sub folders and deleting destination files that no longer
exist in the source. Existing files are never overwritten.`,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute every sync definition",
	Args:  cobra.NoArgs,
	RunE:  runSyncRun,
}

var syncListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List sync definitions",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runSyncList,
}

var syncAddCmd = &cobra.Command{
	Use:   "add <source> <destination>",
	Short: "Add a sync definition",
	Long: `Add a sync definition.

Examples:
  px sync add ~/Pictures/phone /mnt/nas/phone --subfolders
  px sync add ~/Pictures/camera /mnt/backup/camera --subfolders --delete`,
	Args: cobra.ExactArgs(2),
	RunE: runSyncAdd,
}

var syncRemoveCmd = &cobra.Command{
	Use:     "remove <number>",
	Short:   "Remove a sync definition",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    runSyncRemove,
}

func init() {
	syncAddCmd.Flags().BoolVarP(&syncSubFolders, "subfolders", "r", false, "Include sub folders")
	syncAddCmd.Flags().BoolVar(&syncDelete, "delete", false, "Delete destination files missing from the source")

	syncCmd.AddCommand(syncRunCmd)
	syncCmd.AddCommand(syncListCmd)
	syncCmd.AddCommand(syncAddCmd)
	syncCmd.AddCommand(syncRemoveCmd)
}

func runSyncRun(cmd *cobra.Command, args []string) error {
	results, err := syncService.Execute(getContext())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println(ui.FormatInfo("No sync definitions (px sync add <source> <destination>)"))
		return nil
	}

	failed := 0
	for _, r := range results {
		route := fmt.Sprintf("%s → %s", r.Definition.SourceDirectory, r.Definition.DestinationDirectory)
		if r.Err != nil {
			failed++
			fmt.Println(ui.FormatError(route))
			fmt.Println("  " + ui.FormatMuted(r.Err.Error()))
			continue
		}
		fmt.Println(ui.FormatSuccess(route))
		fmt.Println("  " + ui.FormatMuted(fmt.Sprintf("copied %d, deleted %d, unchanged %d", r.Copied, r.Deleted, r.Skipped)))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sync definition(s) failed", failed, len(results))
	}
	fmt.Println(ui.FormatInfo("Run 'px catalog' to pick up the copied files"))
	return nil
}

func runSyncList(cmd *cobra.Command, args []string) error {
	defs, err := syncService.Definitions(getContext())
	if err != nil {
		return fmt.Errorf("failed to list sync definitions: %w", err)
	}
	if len(defs) == 0 {
		fmt.Println(ui.FormatInfo("No sync definitions"))
		return nil
	}

	table := ui.NewTable([]ui.TableColumn{
		{Header: "#", Width: 3, Align: "right"},
		{Header: "Source", Width: 36, Align: "left"},
		{Header: "Destination", Width: 36, Align: "left"},
		{Header: "Sub", Width: 4, Align: "center"},
		{Header: "Delete", Width: 6, Align: "center"},
	})
	for i, d := range defs {
		table.AddRow([]string{
			strconv.Itoa(i + 1),
			ui.TruncatePath(d.SourceDirectory, 36),
			ui.TruncatePath(d.DestinationDirectory, 36),
			yesNo(d.IncludeSubFolders),
			yesNo(d.DeleteAssetsNotInSource),
		})
	}
	fmt.Println(table.Render())
	return nil
}

func runSyncAdd(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	src, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}

	defs, err := syncService.Definitions(ctx)
	if err != nil {
		return err
	}
	defs = append(defs, domain.SyncDefinition{
		SourceDirectory:         src,
		DestinationDirectory:    dst,
		IncludeSubFolders:       syncSubFolders,
		DeleteAssetsNotInSource: syncDelete,
	})
	if err := syncService.SaveDefinitions(ctx, defs); err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Added sync %s → %s", src, dst)))
	return nil
}

func runSyncRemove(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid number: %s", args[0])
	}
	defs, err := syncService.Definitions(ctx)
	if err != nil {
		return err
	}
	if n < 1 || n > len(defs) {
		return fmt.Errorf("no sync definition #%d (see 'px sync list')", n)
	}

	removed := defs[n-1]
	defs = append(defs[:n-1], defs[n:]...)
	if err := syncService.SaveDefinitions(ctx, defs); err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Removed sync %s → %s", removed.SourceDirectory, removed.DestinationDirectory)))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
