package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/statesync/internal/core/domain"
)

var valueJSON bool

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Read and write local state",
	Long: `Read and write raw keys in the local store, the way the host app does.

Preference values are JSON scalar text:
  statesync value set settings/theme '"dark"'
  statesync value set settings/autoplay true

Keys under sync/ are managed by the engine and cannot be written here.`,
}

var valueGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one value",
	Args:  cobra.ExactArgs(1),
	RunE:  runValueGet,
}

var valueSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a value",
	Args:  cobra.ExactArgs(2),
	RunE:  runValueSet,
}

var valueRemoveCmd = &cobra.Command{
	Use:     "rm [key]",
	Aliases: []string{"remove"},
	Short:   "Delete a value",
	Args:    cobra.ExactArgs(1),
	RunE:    runValueRemove,
}

var valueListCmd = &cobra.Command{
	Use:     "ls [prefix]",
	Aliases: []string{"list"},
	Short:   "List values by key prefix",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runValueList,
}

func init() {
	valueListCmd.Flags().BoolVar(&valueJSON, "json", false, "output values as JSON")

	valueCmd.AddCommand(valueGetCmd)
	valueCmd.AddCommand(valueSetCmd)
	valueCmd.AddCommand(valueRemoveCmd)
	valueCmd.AddCommand(valueListCmd)
	rootCmd.AddCommand(valueCmd)
}

func runValueGet(cmd *cobra.Command, args []string) error {
	if err := requireState(); err != nil {
		return err
	}
	v, ok, err := stateService.GetValue(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if !ok {
		return fmt.Errorf("key %s not found", args[0])
	}
	cmd.Println(displayValue(args[0], v))
	return nil
}

func runValueSet(cmd *cobra.Command, args []string) error {
	if err := requireState(); err != nil {
		return err
	}
	return withSession(cmd.Context(), func(ctx context.Context) error {
		if err := stateService.SetValue(ctx, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", args[0], err)
		}
		cmd.Printf("Set %s.\n", args[0])
		return nil
	})
}

func runValueRemove(cmd *cobra.Command, args []string) error {
	if err := requireState(); err != nil {
		return err
	}
	return withSession(cmd.Context(), func(ctx context.Context) error {
		if err := stateService.DeleteValue(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete %s: %w", args[0], err)
		}
		cmd.Printf("Deleted %s.\n", args[0])
		return nil
	})
}

func runValueList(cmd *cobra.Command, args []string) error {
	if err := requireState(); err != nil {
		return err
	}
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	values, err := stateService.ListValues(cmd.Context(), prefix)
	if err != nil {
		return fmt.Errorf("failed to list values: %w", err)
	}

	for k, v := range values {
		values[k] = displayValue(k, v)
	}
	if valueJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}
	if len(values) == 0 {
		cmd.Println("No values.")
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("%s = %s\n", k, values[k])
	}
	return nil
}

// displayValue masks the stored API key.
func displayValue(key, value string) string {
	if key == domain.KeyAPIKey {
		return domain.SyncConfig{APIKey: value}.Redacted().APIKey
	}
	return value
}
