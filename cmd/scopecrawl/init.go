package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/scopecrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/scopecrawl.yaml
var configTemplate embed.FS

// configTemplatePath is the template location inside configTemplate.
const configTemplatePath = "templates/scopecrawl.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new scopecrawl configuration file",
		Long: `Initialize creates a new .scopecrawl configuration file in the current directory.

The generated file includes:
- The default crawl scope and seeds
- Crawl rate and summary settings
- Commented examples for per-host cookies and headers

Examples:
  # Create .scopecrawl in current directory
  scopecrawl init

  # Create config file at a specific path
  scopecrawl init -o myconfig.yaml

  # Create config file in the XDG config directory
  scopecrawl init --xdg

  # Force overwrite existing file
  scopecrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().Bool("xdg", false,
		"Write config.yaml to the XDG config directory instead")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	useXDG, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	if useXDG {
		if cmd.Flags().Changed("output") {
			return errors.New("--xdg and --output are mutually exclusive")
		}
		outputPath = filepath.Join(config.XDGConfigDir(), "config.yaml")
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(configTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Host settings may hold session cookies.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure settings such as:")
	fmt.Fprintln(out, "  - Seeds and allowed domains")
	fmt.Fprintln(out, "  - Crawl rate and page limit")
	fmt.Fprintln(out, "  - Cookies and headers per host")

	return nil
}
