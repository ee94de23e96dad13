package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobsweep/internal/adapter"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of every source with the adapter its type resolves to.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Adapters are only resolved here, never called.
	registry := adapter.DefaultRegistry(nil)

	t := table{header: []string{"ID", "Name", "Type", "Adapter", "Status", "URL"}}
	enabled, disabled, unresolved := 0, 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if s.Enabled {
			enabled++
		} else {
			status = "disabled"
			disabled++
		}
		_, resolved, ok := registry.Resolve(s.Type)
		if !ok {
			resolved = "-"
			unresolved++
		}
		t.add(s.ID, runewidth.Truncate(s.Name, 32, "…"), s.Type, resolved, status, s.URL)
	}
	t.write(os.Stdout)

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled, %d without adapter)\n", len(cfg.Sources), enabled, disabled, unresolved)
	return nil
}
