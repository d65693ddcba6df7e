package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/services"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	catalogProgress bool
	catalogQuiet    bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Bring the catalog up to date with the asset directories",
	Long: `Scan every configured asset directory (and every sync destination) and
update the catalog incrementally:

  - new files are hashed, analysed and thumbnailed
  - files whose size or modification time changed are re-analysed
  - files and folders that disappeared are removed from the catalog

At most catalog_batch_size files are analysed per run; run it again to continue.
When anything changed, the day's backup is created or refreshed.

Use --progress for a live progress view.`,
	Aliases: []string{"scan"},
	RunE:    runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVarP(&catalogProgress, "progress", "p", false, "Show a live progress view")
	catalogCmd.Flags().BoolVarP(&catalogQuiet, "quiet", "q", false, "Only print the summary")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if len(appConfig.AssetDirectories) == 0 {
		fmt.Println(ui.FormatWarning("No asset directories configured"))
		fmt.Println(ui.FormatInfo("Add one with: px dirs add <directory>"))
	}

	changes, unsubscribe := changeNotifier.Subscribe()
	defer unsubscribe()

	var (
		resp *services.CatalogResponse
		err  error
	)
	if catalogProgress {
		resp, err = runCatalogWithProgress(ctx, changes)
	} else {
		resp, err = runCatalogWithLog(ctx, changes)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println(ui.FormatWarning("Catalog cancelled, progress so far was saved"))
			return nil
		}
		return err
	}

	printCatalogSummary(resp)
	return nil
}

func runCatalogWithLog(ctx context.Context, changes <-chan domain.CatalogChange) (*services.CatalogResponse, error) {
	if !catalogQuiet {
		fmt.Println(ui.FormatRocket("Cataloging asset directories..."))
		fmt.Println()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for change := range changes {
			if !catalogQuiet {
				printChange(change)
			}
			if change.Reason.IsTerminal() {
				return
			}
		}
	}()

	resp, err := catalogService.Execute(ctx, catalogRequest())
	<-done
	return resp, err
}

// changeLine renders one entry of the change stream; progress-only
// reasons have no line
func changeLine(change domain.CatalogChange) (string, bool) {
	switch change.Reason {
	case domain.FolderCreated:
		return ui.FormatChange("+", ui.StyleAccent, ui.IconFolder+" "+change.Message), true
	case domain.FolderDeleted:
		return ui.FormatChange("-", ui.StyleError, ui.IconFolder+" "+change.Message), true
	case domain.AssetCreated:
		return ui.FormatChange("+", ui.StyleSuccess, change.Message), true
	case domain.AssetUpdated:
		return ui.FormatChange("~", ui.StyleWarning, change.Message), true
	case domain.AssetDeleted:
		return ui.FormatChange("-", ui.StyleError, change.Message), true
	case domain.BackupCreationStarted:
		return ui.FormatMuted(ui.IconBackup + " Creating today's backup..."), true
	case domain.BackupUpdateStarted:
		return ui.FormatMuted(ui.IconBackup + " Updating today's backup..."), true
	case domain.CatalogProcessFailed:
		return ui.FormatError("Catalog failed: " + change.Message), true
	}
	return "", false
}

func printChange(change domain.CatalogChange) {
	if line, ok := changeLine(change); ok {
		fmt.Println(line)
	}
}

func printCatalogSummary(resp *services.CatalogResponse) {
	if resp == nil {
		return
	}
	fmt.Println()
	if !resp.Changed() {
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Catalog is up to date (%s folders checked)", ui.FormatCount(resp.FoldersInspected))))
	} else {
		fmt.Println(ui.FormatSuccess("Catalog updated"))
		fmt.Println(ui.RenderKeyValue("Folders", fmt.Sprintf("%d checked, %d added, %d removed",
			resp.FoldersInspected, resp.FoldersCreated, resp.FoldersDeleted)))
		fmt.Println(ui.RenderKeyValue("Assets", fmt.Sprintf("%d added, %d updated, %d removed",
			resp.Created, resp.Updated, resp.Deleted)))
	}
	if resp.Corrupted > 0 {
		fmt.Println(ui.FormatWarning(fmt.Sprintf("%d file(s) could not be decoded and were marked corrupted", resp.Corrupted)))
	}
	if resp.Skipped > 0 {
		fmt.Println(ui.FormatWarning(fmt.Sprintf("%d file(s) could not be read (see the log)", resp.Skipped)))
	}
	for _, missing := range resp.Missing {
		fmt.Println(ui.FormatWarning("Directory not found, its catalog entries were kept: " + missing))
	}
	if resp.BatchLimitReached {
		fmt.Println(ui.FormatInfo("Batch limit reached, run 'px catalog' again to continue"))
	}
	if resp.Backup != nil {
		fmt.Println(ui.RenderKeyValue("Backup", fmt.Sprintf("%s (%s)", resp.Backup.Name, ui.FormatBytes(resp.Backup.Size))))
	}
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Done in %s", resp.Duration.Round(time.Millisecond))))
}
