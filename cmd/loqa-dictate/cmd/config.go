package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, path, err := loadConfig()
		if err != nil {
			return err
		}
		if path == "" {
			path = "(defaults)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration after defaults and LOQA_* overrides",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		redact(&cfg.STT.APIKey, &cfg.LLM.APIKey, &cfg.Bus.Password, &cfg.Bus.Token)
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd, configShowCmd)
}

func redact(secrets ...*string) {
	for _, s := range secrets {
		if *s != "" {
			*s = "********"
		}
	}
}
