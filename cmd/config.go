package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kamal-hamza/px-cli/pkg/ui"
)

var (
	configShow bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the px configuration file",
	Long: `Open the px configuration file in $EDITOR.

Use --show to print the effective configuration instead, after defaults
and PX_* environment overrides have been applied.`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "Print the effective configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := appLibrary.ConfigPath

	if configShow {
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		fmt.Println(ui.FormatMuted("# " + path))
		fmt.Print(string(data))
		return nil
	}

	// Ensure it exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := appConfig.Save(path); err != nil {
			return fmt.Errorf("config file not found at %s: %w", path, err)
		}
	}

	fmt.Println(ui.FormatInfo("Opening config: " + path))

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
