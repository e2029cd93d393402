package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "List configured saved queries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Config == nil {
			return fmt.Errorf("configuration not initialized")
		}

		if len(Config.Tracker.Queries) == 0 && Config.Tracker.Query == "" {
			fmt.Println("No queries configured (set tracker.query or tracker.queries in .relnotes.yaml)")
			return nil
		}

		fmt.Println(headerStyle.Render("Saved queries"))
		if Config.Tracker.Query != "" {
			fmt.Printf("  %-20s %s\n", "(default)", Config.Tracker.Query)
		}
		for _, q := range Config.Tracker.Queries {
			fmt.Printf("  %-20s %s\n", q.Name, q.ID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queriesCmd)
}
