package cmd

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	id, err := identity.Generate()
	if err != nil {
		return err
	}

	if err := id.Save(getPrivateKeyPath()); err != nil {
		return err
	}

	pterm.Success.Printfln("key saved to %s", getPrivateKeyPath())
	pterm.Info.Printfln("public key: %s", id.PublicKey())

	return nil
}
