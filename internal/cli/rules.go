package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/billaudit/internal/catalog"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the active concept catalogue and omission rules",
	Long: `Rules validates and prints the catalogue the audit would use, as YAML.
Redirect the output to a file to start a custom catalogue:

  billaudit rules > catalog.yaml
  billaudit audit statements/ --catalog catalog.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("catalog"); path != "" {
			cfg.Catalog.Path = path
		}

		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return err
		}

		data, err := catalog.Marshal(cat)
		if err != nil {
			return err
		}

		source := cfg.Catalog.Path
		if source == "" {
			source = "built-in"
		}
		fmt.Fprintf(os.Stderr, "# catalogue: %s (%d concepts, %d rules)\n", source, len(cat.Concepts), len(cat.Rules))
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().String("catalog", "", "catalogue YAML to validate and print")
}
