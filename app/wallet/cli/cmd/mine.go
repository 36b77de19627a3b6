package cmd

import (
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine a block.",
	RunE:  mineRun,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Ask the node to adopt the longest valid chain of its peers.",
	RunE:  resolveRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(resolveCmd)
}

func mineRun(cmd *cobra.Command, args []string) error {
	var resp struct {
		Message string         `json:"message"`
		Block   database.Block `json:"block"`
		Funds   float64        `json:"funds"`
	}
	if err := call(http.MethodPost, "/v1/mine", nil, &resp); err != nil {
		return err
	}

	pterm.Success.Printfln("%s: index[%d] hash[%s]", resp.Message, resp.Block.Index, resp.Block.Hash())
	pterm.Info.Printfln("node funds: %s", database.FormatAmount(resp.Funds))

	return nil
}

func resolveRun(cmd *cobra.Command, args []string) error {
	var resp struct {
		Replaced bool             `json:"replaced"`
		Message  string           `json:"message"`
		Chain    []database.Block `json:"chain"`
	}
	if err := call(http.MethodPost, "/v1/resolve", nil, &resp); err != nil {
		return err
	}

	if resp.Replaced {
		pterm.Warning.Println(resp.Message)
	} else {
		pterm.Success.Println(resp.Message)
	}
	pterm.Info.Printfln("blocks: %d", len(resp.Chain))

	return nil
}
