package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/internal/adapters/repository"
	"github.com/kamal-hamza/px-cli/pkg/config"
	"github.com/kamal-hamza/px-cli/pkg/library"
	"github.com/kamal-hamza/px-cli/pkg/ui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [asset-directory...]",
	Short: "Initialize the px library",
	Long: `Initialize the px library directory structure.

This creates the managed library at ~/.local/share/px/ with the following structure:
  - catalog.db : The catalog database (folders, assets, sync definitions)
  - blobs/     : Thumbnails, one file per cataloged folder
  - backups/   : Daily catalog backups
  - cache/     : Scratch space and generated reports
  - logs/      : Rotating log files

Any directories given as arguments are added to the configured asset directories.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	lib, err := library.New()
	if err != nil {
		fmt.Println(ui.FormatError("Failed to determine library location"))
		return err
	}

	alreadyInitialized := lib.Exists()
	if alreadyInitialized && len(args) == 0 {
		fmt.Println(ui.FormatWarning("Library already initialized"))
		fmt.Println(ui.FormatMuted("Location: " + lib.RootPath))
		return nil
	}

	if !alreadyInitialized {
		fmt.Println(ui.FormatRocket("Initializing px library..."))
		fmt.Println()
	}

	if err := lib.Initialize(); err != nil {
		fmt.Println(ui.FormatError("Failed to initialize library"))
		return err
	}

	// Create the catalog database so migrations run once up front
	store, err := repository.OpenSQLiteStore(getContext(), lib.DatabasePath())
	if err != nil {
		fmt.Println(ui.FormatError("Failed to create catalog database"))
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}

	cfg, err := config.Load(lib.ConfigPath)
	if err != nil {
		return err
	}
	for _, arg := range args {
		dir, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			fmt.Println(ui.FormatWarning("Not a directory, skipped: " + dir))
			continue
		}
		if cfg.AddAssetDirectory(dir) {
			fmt.Println(ui.FormatSuccess("Asset directory added: " + dir))
		}
	}
	if err := cfg.Save(lib.ConfigPath); err != nil {
		fmt.Println(ui.FormatWarning("Failed to write config: " + err.Error()))
	}

	if alreadyInitialized {
		return nil
	}

	fmt.Println(ui.FormatSuccess("Library initialized successfully!"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Location", lib.RootPath))
	fmt.Println(ui.RenderKeyValue("Config", lib.ConfigPath))
	fmt.Println()
	fmt.Println(ui.FormatInfo("Next steps:"))
	fmt.Println(ui.FormatMuted("  1. Add a photo folder: px dirs add ~/Pictures"))
	fmt.Println(ui.FormatMuted("  2. Build the catalog: px catalog --progress"))
	fmt.Println(ui.FormatMuted("  3. Look for duplicates: px duplicates"))

	return nil
}
