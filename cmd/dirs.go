package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Manage the cataloged asset directories",
	Long: `List, add and remove the root directories that 'px catalog' walks.

Examples:
  px dirs add ~/Pictures
  px dirs remove /mnt/old-disk
  px dirs list`,
}

var dirsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List asset directories",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runDirsList,
}

var dirsAddCmd = &cobra.Command{
	Use:   "add <directory...>",
	Short: "Add asset directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDirsAdd,
}

var dirsRemoveCmd = &cobra.Command{
	Use:     "remove <directory...>",
	Short:   "Remove asset directories",
	Aliases: []string{"rm"},
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDirsRemove,
}

func init() {
	dirsCmd.AddCommand(dirsListCmd)
	dirsCmd.AddCommand(dirsAddCmd)
	dirsCmd.AddCommand(dirsRemoveCmd)
}

func runDirsList(cmd *cobra.Command, args []string) error {
	if len(appConfig.AssetDirectories) == 0 {
		fmt.Println(ui.FormatInfo("No asset directories (px dirs add <directory>)"))
		return nil
	}
	for _, dir := range appConfig.AssetDirectories {
		line := ui.IconFolder + " " + dir
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			line += " " + ui.FormatWarning("(unavailable)")
		}
		fmt.Println(line)
	}
	return nil
}

func runDirsAdd(cmd *cobra.Command, args []string) error {
	added := 0
	for _, arg := range args {
		dir, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("not a directory: %s", arg)
		}
		if appLibrary.Contains(dir) {
			return fmt.Errorf("%s is inside the px library", dir)
		}
		if appConfig.AddAssetDirectory(dir) {
			added++
			fmt.Println(ui.FormatChange("+", ui.StyleSuccess, dir))
		} else {
			fmt.Println(ui.FormatMuted(dir + " is already cataloged"))
		}
	}

	if added == 0 {
		return nil
	}
	if err := appConfig.Save(appLibrary.ConfigPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println(ui.FormatInfo("Run 'px catalog' to catalog the new directories"))
	return nil
}

func runDirsRemove(cmd *cobra.Command, args []string) error {
	removed := 0
	for _, arg := range args {
		dir, err := filepath.Abs(arg)
		if err != nil {
			return err
		}
		if appConfig.RemoveAssetDirectory(dir) {
			removed++
			fmt.Println(ui.FormatChange("-", ui.StyleError, dir))
		} else {
			fmt.Println(ui.FormatWarning(dir + " is not an asset directory"))
		}
	}

	if removed == 0 {
		return nil
	}
	if err := appConfig.Save(appLibrary.ConfigPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println(ui.FormatMuted("Assets cataloged under removed directories stay in the catalog"))
	return nil
}
