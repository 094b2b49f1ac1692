// Package organisms implements the organisms command, printing the
// catalog.
package organisms

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microscan/microscan-go/internal/catalog"
)

// Command creates the organisms subcommand.
func Command() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "organisms",
		Short: "List the microorganism catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCatalog(cmd, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include descriptions and health effects")

	return cmd
}

func printCatalog(cmd *cobra.Command, verbose bool) error {
	organisms := catalog.All()

	fmt.Fprintf(cmd.OutOrStdout(), "Catalog contains %d organisms:\n\n", len(organisms))
	for i := range organisms {
		org := &organisms[i]
		fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-32s gram-%s  risk: %s\n",
			org.ClassID, org.ScientificName, org.GramType, org.Risk)
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n    Health effects: %s\n    Sources: %s\n\n",
				org.Description, org.HealthEffects, org.CommonSources)
		}
	}
	return nil
}
