package main

import (
	"fmt"

	"github.com/calehh/msig-app/state"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

type addressArguments struct {
	Program string
	Seed    uint16
	Group   string
	Payer   string
	Index   uint64
}

var addressArgs addressArguments

var addressCmd = &cobra.Command{
	Use:   "address [group|treasury|proposal|transaction]",
	Short: "Derive a program address offline",
	Args:  cobra.ExactArgs(1),
	Run:   addressRun,
}

func init() {
	programFlag(addressCmd, &addressArgs.Program)
	addressCmd.Flags().Uint16VarP(&addressArgs.Seed, "seed", "", 0, "primary seed of a group or proposal")
	addressCmd.Flags().StringVarP(&addressArgs.Group, "group", "g", "", "group address")
	addressCmd.Flags().StringVarP(&addressArgs.Payer, "payer", "", "", "transaction payer")
	addressCmd.Flags().Uint64VarP(&addressArgs.Index, "index", "i", 0, "transaction index")
}

func addressSeeds(kind string) ([][]byte, error) {
	switch kind {
	case "group":
		return state.GroupSeeds(addressArgs.Seed), nil
	case "treasury", "proposal":
		g, err := parseAddress("group", addressArgs.Group)
		if err != nil {
			return nil, err
		}
		if kind == "treasury" {
			return state.TreasurySeeds(g), nil
		}
		return state.ProposalSeeds(g, addressArgs.Seed), nil
	case "transaction":
		payer, err := parseAddress("payer", addressArgs.Payer)
		if err != nil {
			return nil, err
		}
		return state.TransactionSeeds(payer, addressArgs.Index), nil
	}
	return nil, fmt.Errorf("unknown address kind %q", kind)
}

func addressRun(cmd *cobra.Command, args []string) {
	d, err := newDeriver(addressArgs.Program)
	if err != nil {
		fmt.Println(err)
		return
	}
	seeds, err := addressSeeds(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	addr, bump, err := d.FindAddress(seeds)
	if err != nil {
		fmt.Printf("derive address err:%v\n", err)
		return
	}
	printJSON(struct {
		Address solana.PublicKey `json:"address"`
		Bump    uint8            `json:"bump"`
	}{addr, bump})
}
