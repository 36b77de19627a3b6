package cmd

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/identity"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount float64
)

// sendCmd signs a transfer with the local key and submits it to the node.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send funds to a public key",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Public key of the recipient.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
}

func sendRun(cmd *cobra.Command, args []string) error {
	if to == "" {
		return errors.New("a recipient is required")
	}

	id, err := identity.Load(getPrivateKeyPath())
	if err != nil {
		return err
	}

	sig, err := id.Sign(id.PublicKey(), to, amount)
	if err != nil {
		return err
	}

	tx := database.NewTransaction(id.PublicKey(), to, sig, amount)

	var resp struct {
		Message string  `json:"message"`
		Funds   float64 `json:"funds"`
	}
	if err := call(http.MethodPost, "/v1/tx/signed", tx, &resp); err != nil {
		return err
	}

	pterm.Success.Println(resp.Message)
	pterm.Info.Printfln("funds left: %s", database.FormatAmount(resp.Funds))

	return nil
}
