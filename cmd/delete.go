package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	deleteYes bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete [files...]",
	Short: "Delete cataloged assets from disk",
	Long: `Delete assets from disk together with their catalog rows and thumbnails.

Without file arguments an interactive picker opens (Tab selects several).

Examples:
  px delete IMG_0001.jpg
  px delete`,
	Aliases: []string{"rm"},
	RunE:    runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	var bytes int64
	for _, a := range assets {
		fmt.Println(ui.FormatChange("-", ui.StyleError, a.Path()))
		bytes += a.Asset.FileProperties.Size
	}

	if !deleteYes && !confirm(fmt.Sprintf("Delete %d file(s), %s?", len(assets), ui.FormatBytes(bytes))) {
		fmt.Println(ui.FormatInfo("Operation cancelled."))
		return nil
	}

	n, err := moveService.Delete(getContext(), assets)
	if n > 0 {
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Deleted %d file(s)", n)))
	}
	return err
}
