package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	duplicatesSimilar     bool
	duplicatesInteractive bool
	duplicatesThreshold   int
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Find duplicate and similar assets",
	Long: `List assets that share identical content.

With --similar, images are grouped by perceptual (difference) hash instead,
so resized or re-encoded copies are found too. The maximum Hamming distance
defaults to similarity_threshold and can be changed with --threshold.

With --interactive, a reviewer opens where duplicates can be removed:
  - ↑/↓   : Navigate
  - enter : Keep the highlighted copy, delete the others (exact duplicates)
  - x     : Delete the highlighted file
  - q     : Quit`,
	Aliases: []string{"dups"},
	RunE:    runDuplicates,
}

func init() {
	duplicatesCmd.Flags().BoolVarP(&duplicatesSimilar, "similar", "s", false, "Group visually similar images")
	duplicatesCmd.Flags().BoolVarP(&duplicatesInteractive, "interactive", "i", false, "Review and delete duplicates interactively")
	duplicatesCmd.Flags().IntVarP(&duplicatesThreshold, "threshold", "t", -1, "Maximum hash distance for --similar")
}

// duplicateGroup is one reviewable set, exact or similar
type duplicateGroup struct {
	exact  bool
	label  string
	assets []domain.CatalogedAsset
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	groups, err := loadDuplicateGroups()
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		if duplicatesSimilar {
			fmt.Println(ui.FormatSuccess("No similar images found"))
		} else {
			fmt.Println(ui.FormatSuccess("No duplicates found"))
		}
		return nil
	}

	if duplicatesInteractive {
		p := tea.NewProgram(newDuplicatesModel(ctx, groups))
		final, err := p.Run()
		if err != nil {
			return err
		}
		m := final.(duplicatesModel)
		if m.deleted > 0 {
			fmt.Println(ui.FormatSuccess(fmt.Sprintf("Deleted %d file(s), reclaimed %s", m.deleted, ui.FormatBytes(m.reclaimed))))
		}
		return nil
	}

	printDuplicateGroups(groups)
	return nil
}

func loadDuplicateGroups() ([]duplicateGroup, error) {
	ctx := getContext()
	var groups []duplicateGroup

	if duplicatesSimilar {
		threshold := duplicatesThreshold
		if threshold < 0 {
			threshold = appConfig.SimilarityThreshold
		}
		sets, err := duplicatesService.FindSimilar(ctx, threshold)
		if err != nil {
			return nil, fmt.Errorf("failed to find similar images: %w", err)
		}
		for _, s := range sets {
			groups = append(groups, duplicateGroup{
				label:  fmt.Sprintf("distance ≤ %d", s.MaxDistance),
				assets: s.Assets,
			})
		}
		return groups, nil
	}

	sets, err := duplicatesService.FindExact(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicates: %w", err)
	}
	for _, s := range sets {
		groups = append(groups, duplicateGroup{
			exact:  true,
			label:  fmt.Sprintf("%s wasted", ui.FormatBytes(s.WastedBytes())),
			assets: s.Assets,
		})
	}
	return groups, nil
}

func printDuplicateGroups(groups []duplicateGroup) {
	var wasted int64
	for i, g := range groups {
		fmt.Println(ui.StyleHeader.Render(fmt.Sprintf("Set %d", i+1)) +
			ui.FormatMuted(fmt.Sprintf("  %d files, %s", len(g.assets), g.label)))
		for _, a := range g.assets {
			fmt.Printf("  %s %s\n",
				a.Path(),
				ui.FormatMuted(fmt.Sprintf("(%s, %s)",
					ui.FormatBytes(a.Asset.FileProperties.Size),
					a.Asset.FileProperties.ModifiedAt.Format("2006-01-02"))))
		}
		fmt.Println()
		if g.exact {
			wasted += domain.DuplicateSet{Assets: g.assets}.WastedBytes()
		}
	}

	summary := fmt.Sprintf("%d set(s) found", len(groups))
	if wasted > 0 {
		summary += fmt.Sprintf(", %s could be reclaimed", ui.FormatBytes(wasted))
	}
	fmt.Println(ui.FormatInfo(summary))
	fmt.Println(ui.FormatMuted("Review them with: px duplicates --interactive"))
}
