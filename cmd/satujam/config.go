package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sena168/satujam/internal/config"
)

var flagForce bool

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.config().Encode(app.Out)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInit(app)
		},
	}
	initCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, path)
			return nil
		},
	}

	// init and path must work before a config file exists.
	skipLoad := func(*cobra.Command, []string) error { return nil }
	initCmd.PersistentPreRunE = skipLoad
	pathCmd.PersistentPreRunE = skipLoad

	cmd.AddCommand(showCmd, initCmd, pathCmd)
	return cmd
}

func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

func runConfigInit(app *App) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !flagForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Wrote %s\n", path)
	return nil
}
