package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/docsift/configs"
	"github.com/Aman-CERP/docsift/internal/config"
	"github.com/Aman-CERP/docsift/internal/output"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration",
		Long: `Inspect and create docsift configuration.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/docsift/config.yaml)
  3. Project config (<root>/.docsift.yaml)
  4. Environment variables (DOCSIFT_*)`,
		Example: `  # Show the effective configuration
  docsift config show

  # Write .docsift.yaml with the defaults into the root
  docsift config init`,
	}

	cmd.AddCommand(newConfigShowCmd(opts))
	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(newConfigPathCmd(opts))

	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.root)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create .docsift.yaml in the document root",
		Long: `Write a commented configuration with the defaults to <root>/.docsift.yaml.

An existing file is kept unless --force is given, in which case it is
backed up first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, opts.root, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration (a backup is kept)")

	return cmd
}

func newConfigPathCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\n", config.GetUserConfigPath())
			fmt.Fprintf(cmd.OutOrStdout(), "project: %s\n", filepath.Join(absRoot(opts.root), config.ProjectFileName))
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, root string, force bool) error {
	out := output.New(cmd.OutOrStdout())
	path := filepath.Join(absRoot(root), config.ProjectFileName)

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("", "Location: %s", path)
			out.Status("", "Use --force to overwrite it with the defaults")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return err
		}
		out.Statusf("", "Backup: %s", backup)
	}

	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("", "Location: %s", path)
	out.Status("", "Run 'docsift config show' to verify")
	return nil
}
