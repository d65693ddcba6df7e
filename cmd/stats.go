package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/internal/core/services"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	statsChart bool
	statsOpen  bool
	statsTop   int
)

const statsChartFile = "stats.html"

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Long: `Show totals for the catalog and the largest folders.

With --chart, a bar chart of assets per folder is written as HTML to the
library cache (and opened with --open).`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsChart, "chart", false, "Write an HTML bar chart of assets per folder")
	statsCmd.Flags().BoolVar(&statsOpen, "open", false, "Open the chart after writing it")
	statsCmd.Flags().IntVarP(&statsTop, "top", "n", 10, "Number of folders to show")
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := statsService.Execute(getContext())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	fmt.Println(ui.FormatTitle("Catalog"))
	fmt.Println(ui.RenderKeyValue("Folders", ui.FormatCount(stats.Folders)))
	fmt.Println(ui.RenderKeyValue("Assets", ui.FormatCount(stats.Assets)))
	fmt.Println(ui.RenderKeyValue("Images", ui.FormatCount(stats.Images)))
	fmt.Println(ui.RenderKeyValue("Videos", ui.FormatCount(stats.Videos)))
	fmt.Println(ui.RenderKeyValue("Total size", ui.FormatBytes(stats.TotalBytes)))
	fmt.Println(ui.RenderKeyValue("Rotated", ui.FormatCount(stats.Rotated)))
	fmt.Println(ui.RenderKeyValue("Corrupted", ui.FormatCount(stats.Corrupted)))
	fmt.Println(ui.RenderKeyValue("Duplicate sets", ui.FormatCount(stats.DuplicateSets)))
	fmt.Println(ui.RenderKeyValue("Reclaimable", ui.FormatBytes(stats.WastedBytes)))
	if size, err := thumbnailStorageSize(); err == nil {
		fmt.Println(ui.RenderKeyValue("Thumbnails", ui.FormatBytes(size)))
	}
	fmt.Println()

	top := largestFolders(stats.PerFolder, statsTop)
	if len(top) > 0 {
		table := ui.NewTable([]ui.TableColumn{
			{Header: "Folder", Width: 48, Align: "left"},
			{Header: "Images", Width: 8, Align: "right"},
			{Header: "Videos", Width: 8, Align: "right"},
			{Header: "Corrupt", Width: 8, Align: "right"},
			{Header: "Size", Width: 10, Align: "right"},
		})
		for _, f := range top {
			table.AddRow([]string{
				ui.TruncatePath(f.Folder.Path, 48),
				strconv.Itoa(f.Images),
				strconv.Itoa(f.Videos),
				strconv.Itoa(f.Corrupted),
				ui.FormatBytes(f.Bytes),
			})
		}
		fmt.Println(table.Render())
	}

	if statsChart {
		path := appLibrary.GetCachePath(statsChartFile)
		if err := writeStatsChart(path, top); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		fmt.Println(ui.FormatSuccess("Chart written to " + path))
		if statsOpen {
			if err := openFile(path); err != nil {
				fmt.Println(ui.FormatWarning("Failed to open chart: " + err.Error()))
			}
		}
	}
	return nil
}

// thumbnailStorageSize sums the blob files on disk
func thumbnailStorageSize() (int64, error) {
	files, err := blobStore.BlobFiles()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// largestFolders returns the n non-empty folders with the most assets
func largestFolders(folders []services.FolderStats, n int) []services.FolderStats {
	var out []services.FolderStats
	for _, f := range folders {
		if f.Assets > 0 {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Assets > out[j].Assets
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func writeStatsChart(path string, folders []services.FolderStats) error {
	names := make([]string, len(folders))
	images := make([]opts.BarData, len(folders))
	videos := make([]opts.BarData, len(folders))
	for i, f := range folders {
		names[i] = f.Folder.Name()
		images[i] = opts.BarData{Name: f.Folder.Path, Value: f.Images}
		videos[i] = opts.BarData{Name: f.Folder.Path, Value: f.Videos}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Assets per folder",
			Subtitle: appLibrary.RootPath,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("Images", images).
		AddSeries("Videos", videos)

	if err := os.MkdirAll(appLibrary.CachePath, 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return bar.Render(f)
}

// openFile opens a file with the system's default application
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	return cmd.Start()
}
