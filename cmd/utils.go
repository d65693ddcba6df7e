package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

// errPickerCancelled is returned when the user leaves the fuzzy finder
var errPickerCancelled = errors.New("selection cancelled")

// resolveAssets looks up the catalog entries of file paths
func resolveAssets(paths []string) ([]domain.CatalogedAsset, error) {
	ctx := getContext()

	var assets []domain.CatalogedAsset
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		folder, err := catalogStore.GetFolderByPath(ctx, filepath.Dir(abs))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		asset, err := catalogStore.GetAsset(ctx, folder.ID, filepath.Base(abs))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		assets = append(assets, domain.CatalogedAsset{Asset: *asset, Folder: *folder})
	}
	return assets, nil
}

// pickAssets lets the user choose one or more cataloged assets
func pickAssets(multi bool) ([]domain.CatalogedAsset, error) {
	all, err := catalogStore.ListAllAssets(getContext())
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	label := func(i int) string {
		return all[i].Path()
	}
	preview := fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
		if i == -1 {
			return ""
		}
		return describeAsset(all[i])
	})

	var picked []int
	if multi {
		picked, err = fuzzyfinder.FindMulti(all, label, preview)
	} else {
		var idx int
		idx, err = fuzzyfinder.Find(all, label, preview)
		picked = []int{idx}
	}
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, errPickerCancelled
		}
		return nil, err
	}

	assets := make([]domain.CatalogedAsset, 0, len(picked))
	for _, i := range picked {
		assets = append(assets, all[i])
	}
	return assets, nil
}

// selectAssets resolves paths, or opens the picker when there are none
func selectAssets(paths []string) ([]domain.CatalogedAsset, error) {
	if len(paths) > 0 {
		return resolveAssets(paths)
	}
	return pickAssets(true)
}

// describeAsset renders the preview shown next to the picker
func describeAsset(a domain.CatalogedAsset) string {
	var b strings.Builder
	kind := "Image"
	if a.Asset.IsVideo {
		kind = "Video"
	}
	fmt.Fprintf(&b, "File: %s\n", a.Asset.FileName)
	fmt.Fprintf(&b, "Folder: %s\n", a.Folder.Path)
	fmt.Fprintf(&b, "Type: %s\n", kind)
	if d := a.Asset.Pixel.Asset; d.Width > 0 {
		fmt.Fprintf(&b, "Dimensions: %dx%d (%.2f:1)\n", d.Width, d.Height, a.Asset.AspectRatio())
	}
	fmt.Fprintf(&b, "Size: %s\n", ui.FormatBytes(a.Asset.FileProperties.Size))
	fmt.Fprintf(&b, "Modified: %s\n", a.Asset.FileProperties.ModifiedAt.Format("2006-01-02 15:04"))
	if a.Asset.HasThumbnail() {
		t := a.Asset.Pixel.Thumbnail
		fmt.Fprintf(&b, "Thumbnail: %dx%d\n", t.Width, t.Height)
	}
	if len(a.Asset.Hash) >= 12 {
		fmt.Fprintf(&b, "Hash: %s…\n", a.Asset.Hash[:12])
	}
	if a.Asset.Metadata.Rotated.IsTrue {
		fmt.Fprintf(&b, "Rotated: %d°\n", a.Asset.Rotation)
	}
	if a.Asset.Metadata.Corrupted.IsTrue {
		fmt.Fprintf(&b, "\nCORRUPTED: %s\n", a.Asset.Metadata.Corrupted.Message)
	}
	return b.String()
}

// confirm asks a y/n question on stdin
func confirm(question string) bool {
	fmt.Print(ui.StyleInfo.Render(question + " (y/n): "))
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
