// Command treasury runs the expenditure and funding pot service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "treasury",
	Short: "Expenditure lifecycle and funding pot accounting service",
	Long: `treasury tracks expenditures from creation to finalization, the funding
pots that back them and the claims that pay recipients out.

Configuration is read from TREASURY_* environment variables. An optional
TOML seed file (TREASURY_SEED_FILE) grants domain administrators and
registers skills at startup.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
