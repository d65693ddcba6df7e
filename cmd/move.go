package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/internal/core/services"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	moveCopy bool
	moveTo   string
)

var moveCmd = &cobra.Command{
	Use:   "move [files...]",
	Short: "Move or copy cataloged assets to another directory",
	Long: `Move cataloged assets into a directory, keeping their thumbnails.

Without file arguments an interactive picker opens (Tab selects several).
Without --to the destination is chosen from recently used directories.
Nothing is moved if any file already exists at the destination.

Examples:
  px move --to ~/Pictures/best IMG_0001.jpg IMG_0002.jpg
  px move --copy --to /mnt/nas/album
  px move`,
	Aliases: []string{"mv"},
	RunE:    runMove,
}

func init() {
	moveCmd.Flags().BoolVarP(&moveCopy, "copy", "c", false, "Keep the originals (copy instead of move)")
	moveCmd.Flags().StringVarP(&moveTo, "to", "t", "", "Destination directory")
}

func runMove(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	assets, err := selectAssets(args)
	if errors.Is(err, errPickerCancelled) {
		fmt.Println(ui.FormatInfo("Operation cancelled."))
		return nil
	}
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		fmt.Println(ui.FormatWarning("No assets cataloged yet"))
		return nil
	}

	dest := moveTo
	if dest == "" {
		dest, err = pickDestination()
		if errors.Is(err, errPickerCancelled) {
			fmt.Println(ui.FormatInfo("Operation cancelled."))
			return nil
		}
		if err != nil {
			return err
		}
	}

	resp, err := moveService.Move(ctx, services.MoveRequest{
		Assets:           assets,
		Destination:      dest,
		PreserveOriginal: moveCopy,
	})
	if err != nil {
		return err
	}

	verb := "Moved"
	if moveCopy {
		verb = "Copied"
	}
	fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s %d asset(s) to %s", verb, resp.Moved, resp.Destination.Path)))
	return nil
}

// pickDestination offers recently used destinations
func pickDestination() (string, error) {
	recent, err := moveService.RecentTargetPaths(getContext())
	if err != nil {
		return "", fmt.Errorf("failed to list recent destinations: %w", err)
	}
	if len(recent) == 0 {
		return "", errors.New("no destination given (use --to <directory>)")
	}

	idx, err := fuzzyfinder.Find(
		recent,
		func(i int) string {
			return recent[i]
		},
		fuzzyfinder.WithPromptString("Destination> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return fmt.Sprintf("Directory: %s\nName: %s", recent[i], filepath.Base(recent[i]))
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return "", errPickerCancelled
		}
		return "", err
	}
	return recent[idx], nil
}
