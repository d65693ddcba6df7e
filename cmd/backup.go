package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	restoreYes bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage catalog backups",
	Long: `Create, list, prune and restore catalog backups.

A backup is a zip archive holding a snapshot of the catalog database, every
thumbnail blob and a manifest with checksums. There is at most one archive
per day; backing up again on the same day replaces it. The newest
backups_to_keep archives are kept.`,
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Back up the catalog now",
	Args:  cobra.NoArgs,
	RunE:  runBackupCreate,
}

var backupListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List backups",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runBackupList,
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete backups beyond backups_to_keep",
	Args:  cobra.NoArgs,
	RunE:  runBackupPrune,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <name>",
	Short: "Replace the catalog with a backup",
	Long: `Restore the catalog database and thumbnails from a backup.

The archive is verified against its manifest before anything is replaced.

Examples:
  px backup restore 20260101.zip
  px backup restore 20260101`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupRestore,
}

func init() {
	backupRestoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not ask for confirmation")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupPruneCmd)
	backupCmd.AddCommand(backupRestoreCmd)
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	info, err := backupService.Backup(getContext(), time.Now())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s %s written (%s)", ui.IconBackup, info.Name, ui.FormatBytes(info.Size))))
	fmt.Println(ui.FormatMuted(info.Path))
	return nil
}

func runBackupList(cmd *cobra.Command, args []string) error {
	backups, err := backupService.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		fmt.Println(ui.FormatInfo("No backups yet (px backup create)"))
		return nil
	}

	table := ui.NewTable([]ui.TableColumn{
		{Header: "Name", Width: 16, Align: "left"},
		{Header: "Date", Width: 12, Align: "left"},
		{Header: "Age", Width: 16, Align: "left"},
		{Header: "Size", Width: 10, Align: "right"},
	})
	for _, b := range backups {
		table.AddRow([]string{
			b.Name,
			b.Date.Format("2006-01-02"),
			ui.FormatAgo(b.Date),
			ui.FormatBytes(b.Size),
		})
	}
	fmt.Println(table.Render())
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Keeping the newest %d", appConfig.BackupsToKeep)))
	return nil
}

func runBackupPrune(cmd *cobra.Command, args []string) error {
	removed, err := backupService.Prune()
	for _, b := range removed {
		fmt.Println(ui.FormatChange("-", ui.StyleError, b.Name))
	}
	if err != nil {
		return fmt.Errorf("failed to prune backups: %w", err)
	}
	if len(removed) == 0 {
		fmt.Println(ui.FormatInfo("Nothing to prune"))
		return nil
	}
	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Pruned %d backup(s)", len(removed))))
	return nil
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}

	if _, err := os.Stat(appLibrary.GetBackupPath(name)); err != nil {
		return fmt.Errorf("%s: %w", name, domain.ErrBackupNotFound)
	}

	if !restoreYes {
		fmt.Println(ui.FormatWarning("This replaces the current catalog and thumbnails."))
		if !confirm(fmt.Sprintf("Restore %s?", name)) {
			fmt.Println(ui.FormatInfo("Operation cancelled."))
			return nil
		}
	}

	// The database file is replaced underneath, so release it first
	blobStore.Reset()
	if err := catalogStore.Close(); err != nil {
		return fmt.Errorf("failed to close catalog: %w", err)
	}
	catalogStore = nil

	manifest, err := backupService.Restore(getContext(), name)
	if err != nil {
		return err
	}
	blobStore.Reset()
	if err := appLibrary.CleanCache(); err != nil {
		appLogger.Warn("failed to clean cache after restore", zap.Error(err))
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Restored %s (%d files, created %s)", name, len(manifest.Files), manifest.CreatedAt)))
	return nil
}
