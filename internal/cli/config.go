package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective run configuration",
	Long: `Print the effective run configuration as YAML: file settings merged
with defaults. Credentials resolved from the environment are redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Config == nil {
			return fmt.Errorf("configuration not initialized")
		}

		data, err := yaml.Marshal(Config)
		if err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}

		fmt.Printf("# effective configuration (%s/.relnotes.yaml)\n", BasePath)
		fmt.Print(string(data))

		if Config.Tracker.PAT == "" {
			fmt.Println("# warning: AZURE_DEVOPS_PAT is not set")
		}
		if Config.Model.APIKey == "" {
			fmt.Println("# warning: OPENAI_API_KEY is not set")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
