// This program is a wallet for the ledger node. It keeps the private key
// locally and talks to a node through the public api.
package main

import "github.com/ardanlabs/powchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
