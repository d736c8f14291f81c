package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rulesOverride string

// rulesCmd prints the effective business rules.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective business rules",
	Long: `Print the business rules used by "ace2gnc convert" as YAML.

Without ACE2GNC_RULES or {home}/rules.yaml the embedded defaults are
printed; redirect them to a file to start a custom rules file.

Example:
  ace2gnc rules > ~/.ace2gnc/rules.yaml`,
	Run: runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesOverride, "rules", "", "business rules YAML")
}

func runRules(cmd *cobra.Command, args []string) {
	_, pathResolver := loadEnvironment()
	r := loadRules(pathResolver, rulesOverride)

	data, err := r.Marshal()
	exitOnError(err, "failed to marshal rules")

	_, err = os.Stdout.Write(data)
	exitOnError(err, "failed to write rules")
}
