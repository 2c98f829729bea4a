package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/ravenx.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = ".ravenx"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new RavenX configuration file",
		Long: `Initialize writes a starter .ravenx configuration file.

The template documents every available option and ships with:
- Crawl governance defaults (per-host rate, page quota, time budget)
- Commented examples for per-host cookies and headers
- An allow_hosts section for admitting extra hosts into scope

Examples:
  # Write .ravenx into the current directory
  ravenx init

  # Write the template to a custom path
  ravenx init -o myconfig.yaml

  # Replace an existing file
  ravenx init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Path to write the configuration file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite an existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file %s already exists (use -f to overwrite)", outputPath)
		}
	}

	if err := writeConfigTemplate(outputPath); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n\n", outputPath)
	fmt.Fprintln(out, "Edit this file to configure settings such as:")
	fmt.Fprintln(out, "  - Per-host request rate and page quota")
	fmt.Fprintln(out, "  - Extra hosts admitted into scope")
	fmt.Fprintln(out, "  - Authentication cookies and headers per host")

	return nil
}

// writeConfigTemplate writes the embedded configuration template to path,
// creating parent directories as needed.
func writeConfigTemplate(path string) error {
	content, err := configTemplate.ReadFile("templates/ravenx.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}
