package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/sydologie/diapoai/internal/adapters/secondary/config"
	"github.com/sydologie/diapoai/internal/domain/services"
)

// configCmd groups the configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or reset the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show [slides.html]",
	Short: "Print the effective configuration",
	Long: `Print the configuration a command would use: defaults, the global file,
the diapoai.toml next to the slides, DIAPOAI_* variables and flags, merged in
that order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default global configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	input := ""
	if len(args) > 0 {
		input = args[0]
	}

	a, err := newApp(cmd, input, nil)
	if err != nil {
		return err
	}
	defer a.close()

	return toml.NewEncoder(cmd.OutOrStdout()).Encode(a.config)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfgService := services.NewConfigService(config.NewTOMLLoader(), config.NewConfigMerger())
	path, err := cfgService.InitGlobal(cmd.Context())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
