package main

import (
	"encoding/hex"
	"fmt"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var transactionCmd = &cobra.Command{
	Use:   "transaction",
	Short: "Store transaction buffers",
}

type transactionCreateArguments struct {
	txArguments
	Index  uint64
	Buffer string
}

var transactionCreateArgs transactionCreateArguments

var transactionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a transaction record paid by the signer",
	Run:   transactionCreateRun,
}

func init() {
	txFlags(transactionCreateCmd, &transactionCreateArgs.txArguments)
	transactionCreateCmd.Flags().Uint64VarP(&transactionCreateArgs.Index, "index", "i", 0, "transaction index")
	transactionCreateCmd.Flags().StringVarP(&transactionCreateArgs.Buffer, "buffer", "b", "", "hex encoded buffer")
	transactionCmd.AddCommand(transactionCreateCmd)
}

func transactionCreateRun(cmd *cobra.Command, args []string) {
	a := &transactionCreateArgs
	buf, err := hex.DecodeString(a.Buffer)
	if err != nil {
		fmt.Printf("decode buffer err:%v\n", err)
		return
	}
	if len(buf) > types.TxBufferCap {
		fmt.Printf("buffer of %d bytes exceeds %d\n", len(buf), types.TxBufferCap)
		return
	}
	d, err := newDeriver(a.Program)
	if err != nil {
		fmt.Println(err)
		return
	}
	pv, err := a.signer()
	if err != nil {
		fmt.Println(err)
		return
	}
	addr, _, err := d.FindAddress(state.TransactionSeeds(pv.Address(), a.Index))
	if err != nil {
		fmt.Printf("derive transaction err:%v\n", err)
		return
	}
	fmt.Println("transaction:", addr)
	ix := &tx.CreateTransactionInstruction{TransactionIndex: a.Index, BufferSize: uint16(len(buf))}
	copy(ix.Buffer[:], buf)
	submit(&a.txArguments, pv, []solana.PublicKey{pv.Address(), addr}, ix.Encode())
}
