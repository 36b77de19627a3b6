package cmd

import (
	"net/http"
	"strconv"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain held by the node.",
	RunE:  chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

func chainRun(cmd *cobra.Command, args []string) error {
	var chain []database.Block
	if err := call(http.MethodGet, "/v1/chain", nil, &chain); err != nil {
		return err
	}

	return pterm.DefaultTable.WithHasHeader().WithData(chainTable(chain)).Render()
}

// chainTable lays out one row per block.
func chainTable(chain []database.Block) pterm.TableData {
	data := pterm.TableData{
		{"Index", "Hash", "Previous", "Proof", "Txs", "Timestamp"},
	}

	for _, block := range chain {
		data = append(data, []string{
			strconv.FormatUint(block.Index, 10),
			shorten(block.Hash()),
			shorten(block.PreviousHash),
			strconv.FormatUint(block.Proof, 10),
			strconv.Itoa(len(block.Transactions)),
			strconv.FormatUint(block.TimeStamp, 10),
		})
	}

	return data
}

func shorten(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12]
}
