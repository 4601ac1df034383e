package main

import (
	"context"
	"fmt"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Open proposals and vote on them",
}

type proposalCreateArguments struct {
	txArguments
	Group  string
	Seed   uint16
	Expiry uint64
}

var proposalCreateArgs proposalCreateArguments

var proposalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a proposal in a group",
	Run:   proposalCreateRun,
}

type voteArguments struct {
	txArguments
	Proposal string
	Group    string
	Reject   bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote yes (or no with --reject) on a proposal",
	Run:   voteRun,
}

var proposalShowArgs showArguments

var proposalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a decoded proposal with its voters",
	Run:   proposalShowRun,
}

func init() {
	txFlags(proposalCreateCmd, &proposalCreateArgs.txArguments)
	proposalCreateCmd.Flags().StringVarP(&proposalCreateArgs.Group, "group", "g", "", "group address")
	proposalCreateCmd.Flags().Uint16VarP(&proposalCreateArgs.Seed, "seed", "", 0, "proposal primary seed")
	proposalCreateCmd.Flags().Uint64VarP(&proposalCreateArgs.Expiry, "expiry", "", 0, "lifetime in seconds")

	txFlags(voteCmd, &voteArgs.txArguments)
	voteCmd.Flags().StringVarP(&voteArgs.Group, "group", "g", "", "group address")
	voteCmd.Flags().StringVarP(&voteArgs.Proposal, "proposal", "", "", "proposal address")
	voteCmd.Flags().BoolVarP(&voteArgs.Reject, "reject", "", false, "vote no")

	urlFlag(proposalShowCmd, &proposalShowArgs.Url)
	proposalShowCmd.Flags().StringVarP(&proposalShowArgs.Address, "proposal", "", "", "proposal address")

	proposalCmd.AddCommand(proposalCreateCmd, voteCmd, proposalShowCmd)
}

func proposalCreateRun(cmd *cobra.Command, args []string) {
	a := &proposalCreateArgs
	group, err := parseAddress("group", a.Group)
	if err != nil {
		fmt.Println(err)
		return
	}
	d, err := newDeriver(a.Program)
	if err != nil {
		fmt.Println(err)
		return
	}
	proposal, _, err := d.FindAddress(state.ProposalSeeds(group, a.Seed))
	if err != nil {
		fmt.Printf("derive proposal err:%v\n", err)
		return
	}
	pv, err := a.signer()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("proposal:", proposal)
	ix := &tx.CreateProposalInstruction{Expiry: a.Expiry, PrimarySeed: a.Seed}
	submit(&a.txArguments, pv, []solana.PublicKey{pv.Address(), proposal, group}, ix.Encode())
}

// voteRun reads both bumps from the chain before signing.
func voteRun(cmd *cobra.Command, args []string) {
	a := &voteArgs
	group, err := parseAddress("group", a.Group)
	if err != nil {
		fmt.Println(err)
		return
	}
	proposal, err := parseAddress("proposal", a.Proposal)
	if err != nil {
		fmt.Println(err)
		return
	}
	cli, err := newClient(a.Url)
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	ctx := context.Background()
	g, err := cli.Group(ctx, group)
	if err != nil {
		fmt.Printf("query group err:%v\n", err)
		return
	}
	p, err := cli.Proposal(ctx, proposal)
	if err != nil {
		fmt.Printf("query proposal err:%v\n", err)
		return
	}
	pv, err := a.signer()
	if err != nil {
		fmt.Println(err)
		return
	}
	ix := &tx.VoteInstruction{GroupBump: g.Header.Bump, ProposalBump: p.Header.Bump, Choice: types.VoteYes}
	if a.Reject {
		ix.Choice = types.VoteNo
	}
	submit(&a.txArguments, pv, []solana.PublicKey{pv.Address(), group, proposal}, ix.Encode())
}

func proposalShowRun(cmd *cobra.Command, args []string) {
	proposal, err := parseAddress("proposal", proposalShowArgs.Address)
	if err != nil {
		fmt.Println(err)
		return
	}
	cli, err := newClient(proposalShowArgs.Url)
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	v, err := cli.Proposal(context.Background(), proposal)
	if err != nil {
		fmt.Printf("query proposal err:%v\n", err)
		return
	}
	printJSON(v)
}
