package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/mapscan/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default .mapscan/config.yaml",
		Long: `Write a configuration file with the default settings to
<dir>/.mapscan/config.yaml (dir defaults to the current directory, or
$MAPSCAN_HOME/config.yaml when MAPSCAN_HOME is set and no dir is given).

An existing file is left untouched unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}

	cmd.Flags().String("rules-dir", "", "Rules directory to record as rules_dir")
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = filepath.Join(args[0], config.HomeDirName, config.ConfigFileName)
	} else {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: err}
		}
		path = p
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%s already exists (use --force to overwrite)", path)}
	}

	cfg := config.DefaultConfig()
	cfg.LogDir = filepath.Join(config.HomeDirName, "logs")
	cfg.RulesDir, _ = cmd.Flags().GetString("rules-dir")

	if err := cfg.Save(path); err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
