package main

import (
	"context"
	"fmt"
	"os"

	"github.com/calehh/msig-app/crypto"
	"github.com/calehh/msig-app/tx"
	"github.com/spf13/cobra"
)

type signArguments struct {
	Url  string
	Skey string
	Tx   string
}

var signArgs signArguments

// signCmd appends the next signer's signature to a transaction printed with --nosend.
var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Co-sign a transaction file",
	Run:   signRun,
}

type broadcastArguments struct {
	Url string
	Tx  string
}

var broadcastArgs broadcastArguments

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Send a signed transaction file",
	Run:   broadcastRun,
}

func init() {
	urlFlag(signCmd, &signArgs.Url)
	keyFlag(signCmd, &signArgs.Skey)
	signCmd.Flags().StringVarP(&signArgs.Tx, "tx", "t", "", "transaction json file")

	urlFlag(broadcastCmd, &broadcastArgs.Url)
	broadcastCmd.Flags().StringVarP(&broadcastArgs.Tx, "tx", "t", "", "transaction json file")
}

func readTx(path string) (*tx.MsigTx, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tx.UnmarshalMsigTx(dat)
}

func signRun(cmd *cobra.Command, args []string) {
	mtx, err := readTx(signArgs.Tx)
	if err != nil {
		fmt.Printf("read tx err:%v\n", err)
		return
	}
	pv, err := crypto.LoadFilePV(signArgs.Skey)
	if err != nil {
		fmt.Printf("load key err:%v\n", err)
		return
	}
	cli, err := newClient(signArgs.Url)
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	chainID, err := cli.ChainID(context.Background())
	if err != nil {
		fmt.Printf("get chain id err:%v\n", err)
		return
	}
	if err = mtx.Sign(pv.PrivKey(), chainID); err != nil {
		fmt.Printf("sign tx err:%v\n", err)
		return
	}
	printJSON(mtx)
}

func broadcastRun(cmd *cobra.Command, args []string) {
	mtx, err := readTx(broadcastArgs.Tx)
	if err != nil {
		fmt.Printf("read tx err:%v\n", err)
		return
	}
	cli, err := newClient(broadcastArgs.Url)
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	res, err := cli.Broadcast(context.Background(), mtx)
	if err != nil {
		fmt.Printf("broadcast tx err:%v\n", err)
		return
	}
	printJSON(res)
}
