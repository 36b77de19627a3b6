package cmd

import (
	"net/http"
	"net/url"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type peerList struct {
	Message  string   `json:"message"`
	AllNodes []string `json:"all_nodes"`
}

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Manage the peers known to the node.",
}

var peersAddCmd = &cobra.Command{
	Use:   "add <host>",
	Short: "Add a peer.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp peerList
		if err := call(http.MethodPost, "/v1/peers", map[string]string{"node": args[0]}, &resp); err != nil {
			return err
		}
		return printPeers(resp)
	},
}

var peersRemoveCmd = &cobra.Command{
	Use:   "remove <host>",
	Short: "Remove a peer.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp peerList
		if err := call(http.MethodDelete, "/v1/peers/"+url.PathEscape(args[0]), nil, &resp); err != nil {
			return err
		}
		return printPeers(resp)
	},
}

var peersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the peers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp peerList
		if err := call(http.MethodGet, "/v1/peers", nil, &resp); err != nil {
			return err
		}
		return printPeers(resp)
	},
}

func init() {
	peersCmd.AddCommand(peersAddCmd, peersRemoveCmd, peersListCmd)
	rootCmd.AddCommand(peersCmd)
}

func printPeers(resp peerList) error {
	if resp.Message != "" {
		pterm.Success.Println(resp.Message)
	}

	items := make([]pterm.BulletListItem, len(resp.AllNodes))
	for i, host := range resp.AllNodes {
		items[i] = pterm.BulletListItem{Level: 0, Text: host}
	}

	return pterm.DefaultBulletList.WithItems(items).Render()
}
