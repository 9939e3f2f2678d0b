package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/harrison/mapscan/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// loadConfig reads --config when given, otherwise config.yaml in the mapscan
// home directory. A missing file yields the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}

	path, err := config.DefaultConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config: %w", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveColor decides whether output to w is colored. "auto" colors only a
// terminal and honours NO_COLOR. The fatih/color global is kept in step so
// that "always" also works when output is piped.
func resolveColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		color.NoColor = false
		return true
	case config.ColorNever:
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
