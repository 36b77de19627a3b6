package cmd

import (
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var of string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&of, "of", "o", "", "Public key to look up instead of the wallet.")
}

func balanceRun(cmd *cobra.Command, args []string) error {
	account := of
	if account == "" {
		id, err := identity.Load(getPrivateKeyPath())
		if err != nil {
			return err
		}
		account = id.PublicKey()
	}

	var bal struct {
		Account string  `json:"account"`
		Name    string  `json:"name"`
		Funds   float64 `json:"funds"`
	}
	if err := call(http.MethodGet, "/v1/balance/"+account, nil, &bal); err != nil {
		return err
	}

	pterm.Info.Printfln("account: %s", bal.Name)
	pterm.Success.Printfln("funds: %s", database.FormatAmount(bal.Funds))

	return nil
}
