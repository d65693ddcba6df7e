package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	findCorrupted bool
	findRotated   bool
	findVideos    bool
	findCopies    string
)

var findCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Search the catalog",
	Long: `Search cataloged assets by path.

With a query, every asset whose path contains it is listed. Without one, an
interactive picker opens and the chosen path is copied to the clipboard.

Examples:
  px find 2024/holiday
  px find --corrupted
  px find --copies IMG_0001.jpg
  px find`,
	Aliases: []string{"search"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runFind,
}

func init() {
	findCmd.Flags().BoolVar(&findCorrupted, "corrupted", false, "Only corrupted assets")
	findCmd.Flags().BoolVar(&findRotated, "rotated", false, "Only rotated images")
	findCmd.Flags().BoolVar(&findVideos, "videos", false, "Only videos")
	findCmd.Flags().StringVar(&findCopies, "copies", "", "List every copy of a cataloged file")
}

func runFind(cmd *cobra.Command, args []string) error {
	if findCopies != "" {
		return runFindCopies(findCopies)
	}

	all, err := catalogStore.ListAllAssets(getContext())
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}

	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	matches := filterAssets(all, query)

	if len(matches) == 0 {
		fmt.Println(ui.FormatWarning("No assets found"))
		return nil
	}

	if query != "" || findCorrupted || findRotated || findVideos {
		printAssetList(matches)
		return nil
	}

	idx, err := fuzzyfinder.Find(
		matches,
		func(i int) string {
			return matches[i].Path()
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return describeAsset(matches[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			fmt.Println(ui.FormatInfo("Operation cancelled."))
			return nil
		}
		return err
	}

	selected := matches[idx]
	fmt.Println(describeAsset(selected))

	// Try to write to clipboard (non-blocking if fails)
	if err := clipboard.WriteAll(selected.Path()); err != nil {
		fmt.Println(ui.FormatMuted("(Clipboard access failed, please copy manually)"))
	} else {
		fmt.Println(ui.FormatSuccess("Path copied to clipboard"))
	}
	return nil
}

func runFindCopies(path string) error {
	assets, err := resolveAssets([]string{path})
	if err != nil {
		return err
	}
	copies, err := duplicatesService.CopiesOf(getContext(), assets[0])
	if err != nil {
		return err
	}
	if len(copies) == 0 {
		fmt.Println(ui.FormatSuccess("No other copies of " + assets[0].Path()))
		return nil
	}
	printAssetList(copies)
	return nil
}

// filterAssets applies the query and the flag filters
func filterAssets(all []domain.CatalogedAsset, query string) []domain.CatalogedAsset {
	query = strings.ToLower(query)
	var out []domain.CatalogedAsset
	for _, a := range all {
		if query != "" && !strings.Contains(strings.ToLower(a.Path()), query) {
			continue
		}
		if findCorrupted && !a.Asset.Metadata.Corrupted.IsTrue {
			continue
		}
		if findRotated && !a.Asset.Metadata.Rotated.IsTrue {
			continue
		}
		if findVideos && !a.Asset.IsVideo {
			continue
		}
		out = append(out, a)
	}
	return out
}

func printAssetList(assets []domain.CatalogedAsset) {
	for _, a := range assets {
		icon := ui.IconPhoto
		if a.Asset.IsVideo {
			icon = ui.IconVideo
		}
		note := ui.FormatBytes(a.Asset.FileProperties.Size)
		if a.Asset.Metadata.Corrupted.IsTrue {
			note += ", corrupted: " + a.Asset.Metadata.Corrupted.Message
		}
		fmt.Printf("%s %s %s\n", icon, a.Path(), ui.FormatMuted("("+note+")"))
	}
	fmt.Println()
	fmt.Println(ui.FormatInfo(fmt.Sprintf("%d asset(s)", len(assets))))
}
