package main

import (
	"encoding/hex"
	"fmt"

	"github.com/calehh/msig-app/crypto"
	"github.com/spf13/cobra"
)

type pubkeyArguments struct {
	Skey string
}

var pubkeyArgs pubkeyArguments

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Print the wallet address of a key file",
	Run:   pubkeyRun,
}

func init() {
	keyFlag(pubkeyCmd, &pubkeyArgs.Skey)
}

func pubkeyRun(cmd *cobra.Command, args []string) {
	pv, err := crypto.LoadFilePV(pubkeyArgs.Skey)
	if err != nil {
		fmt.Printf("load key err:%v\n", err)
		return
	}
	fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	fmt.Println("address:", pv.Address())
	fmt.Println("validator:", pv.ValidatorAddress())
}
