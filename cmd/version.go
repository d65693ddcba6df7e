package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/internal/adapters/media"
	"github.com/kamal-hamza/px-cli/pkg/library"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

// Set at build time with -ldflags "-X github.com/kamal-hamza/px-cli/cmd.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Display version information",
	Aliases: []string{"v"},
	Long: `Display the px version, build details, the library location and
whether ffmpeg is available for video thumbnails.`,
	Args: cobra.NoArgs,
	Run:  runVersion,
}

// buildVersion falls back to the module version recorded by 'go install'
func buildVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Println(ui.FormatTitle("PX") + " - Photo Catalog")
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Version", buildVersion()))
	fmt.Println(ui.RenderKeyValue("Commit", GitCommit))
	fmt.Println(ui.RenderKeyValue("Built", BuildDate))
	fmt.Println(ui.RenderKeyValue("Go", fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)))

	if lib, err := library.New(); err == nil {
		location := lib.RootPath
		if !lib.Exists() {
			location += ui.FormatMuted(" (not initialized)")
		}
		fmt.Println(ui.RenderKeyValue("Library", location))
	}

	ffmpeg := ui.FormatMuted("not found")
	if media.NewFFmpegExtractor("ffmpeg").IsAvailable() {
		ffmpeg = "available"
	}
	fmt.Println(ui.RenderKeyValue("ffmpeg", ffmpeg))
}
