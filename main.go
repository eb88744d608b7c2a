package main

import "github.com/ggxchain/transaction-receipt-relayer/cmd"

func main() {
	cmd.Execute()
}
