package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type recordArguments struct {
	Url     string
	Address string
}

var recordArgs recordArguments

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Show the raw record stored at an address",
	Run:   recordRun,
}

var nonceArgs recordArguments

var nonceCmd = &cobra.Command{
	Use:   "nonce",
	Short: "Show the tx nonce of a wallet",
	Run:   nonceRun,
}

func init() {
	urlFlag(recordCmd, &recordArgs.Url)
	recordCmd.Flags().StringVarP(&recordArgs.Address, "address", "a", "", "record address")
	urlFlag(nonceCmd, &nonceArgs.Url)
	nonceCmd.Flags().StringVarP(&nonceArgs.Address, "address", "a", "", "wallet address")
}

func recordRun(cmd *cobra.Command, args []string) {
	addr, err := parseAddress("address", recordArgs.Address)
	if err != nil {
		fmt.Println(err)
		return
	}
	cli, err := newClient(recordArgs.Url)
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	rec, err := cli.Record(context.Background(), addr)
	if err != nil {
		fmt.Printf("query record err:%v\n", err)
		return
	}
	printJSON(rec)
}

func nonceRun(cmd *cobra.Command, args []string) {
	addr, err := parseAddress("address", nonceArgs.Address)
	if err != nil {
		fmt.Println(err)
		return
	}
	cli, err := newClient(nonceArgs.Url)
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	nonce, err := cli.Nonce(context.Background(), addr)
	if err != nil {
		fmt.Printf("query nonce err:%v\n", err)
		return
	}
	fmt.Printf("nonce:%v address:%v\n", nonce, addr)
}
