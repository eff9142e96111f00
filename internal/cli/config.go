package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rkaragin/ldverify/internal/model"
	"github.com/rkaragin/ldverify/internal/ruleset"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ldverify configuration",
	Long: `Manage ldverify configuration and keyword rulesets.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (LDVERIFY_*)
3. Config file (~/.ldverify/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration and the built-in ruleset",
	RunE: func(cmd *cobra.Command, args []string) error {
		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", file)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		cfgYAML, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println("# Configuration")
		fmt.Println(string(cfgYAML))

		rsYAML, err := ruleset.Default().Marshal()
		if err != nil {
			return err
		}
		fmt.Println("# Built-in ruleset")
		fmt.Println(string(rsYAML))

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and ruleset to ~/.ldverify/",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		configPath := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s", configPath)
		}

		cfgYAML, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		header := "# ldverify configuration\n# Flags and LDVERIFY_* environment variables override these values.\n\n"
		if err := os.WriteFile(configPath, append([]byte(header), cfgYAML...), 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		rsPath := filepath.Join(dir, "ruleset.yaml")
		if _, err := os.Stat(rsPath); os.IsNotExist(err) {
			rsYAML, err := ruleset.Default().Marshal()
			if err != nil {
				return err
			}
			rsHeader := "# Keyword ruleset. Pass to ldverify run with --ruleset.\n\n"
			if err := os.WriteFile(rsPath, append([]byte(rsHeader), rsYAML...), 0644); err != nil {
				return fmt.Errorf("write ruleset: %w", err)
			}
		}

		fmt.Printf("Wrote %s\n", configPath)
		fmt.Printf("Wrote %s\n", rsPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
