package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sena168/satujam/internal/keys"
	"github.com/sena168/satujam/pkg/models"
)

func newKeysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored provider API keys",
	}

	setCmd := &cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store a key (prompts when the key is omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runKeysSet(app, args)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored keys (masked)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runKeysList(app)
		},
	}

	deleteCmd := &cobra.Command{
		Use:     "delete <provider>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored key",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runKeysDelete(app, args[0])
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the key file location",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := app.NewKeyStore()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, store.Path())
			return nil
		},
	}

	cmd.AddCommand(setCmd, listCmd, deleteCmd, pathCmd)
	return cmd
}

func runKeysSet(app *App, args []string) error {
	providerName := strings.ToLower(args[0])
	if !models.ProviderType(providerName).IsValid() {
		return fmt.Errorf("unknown provider %q: must be one of %v", providerName, models.ValidProviders())
	}

	key := ""
	if len(args) == 2 {
		key = args[1]
	} else {
		var err error
		if key, err = readKey(app, providerName); err != nil {
			return err
		}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("empty key")
	}

	store, err := app.NewKeyStore()
	if err != nil {
		return err
	}
	if err := store.Set(providerName, key); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Stored %s key %s in %s\n", providerName, keys.MaskKey(key), store.Path())
	return nil
}

// readKey prompts without echo on a terminal and reads one line otherwise.
func readKey(app *App, providerName string) (string, error) {
	fmt.Fprintf(app.Out, "Enter %s API key: ", providerName)

	if f, ok := app.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(app.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(app.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return line, nil
}

func runKeysList(app *App) error {
	store, err := app.NewKeyStore()
	if err != nil {
		return err
	}

	providers, err := store.List()
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		fmt.Fprintln(app.Out, "No keys stored.")
		return nil
	}

	for _, p := range providers {
		key, err := store.Get(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "%-10s %s\n", p, keys.MaskKey(key))
	}
	return nil
}

func runKeysDelete(app *App, providerName string) error {
	store, err := app.NewKeyStore()
	if err != nil {
		return err
	}
	if err := store.Delete(strings.ToLower(providerName)); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Deleted %s key\n", providerName)
	return nil
}
