package main

import (
	"fmt"
	"os"
)

func main() {
	nodeCmd.AddCommand(initCmd)
	nodeCmd.AddCommand(versionCmd)
	nodeCmd.AddCommand(pubkeyCmd)
	nodeCmd.AddCommand(addressCmd)
	nodeCmd.AddCommand(recordCmd)
	nodeCmd.AddCommand(nonceCmd)
	nodeCmd.AddCommand(groupCmd)
	nodeCmd.AddCommand(proposalCmd)
	nodeCmd.AddCommand(transactionCmd)
	nodeCmd.AddCommand(signCmd)
	nodeCmd.AddCommand(broadcastCmd)
	if err := nodeCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
