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

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage multisig groups",
}

type groupInitArguments struct {
	txArguments
	Seed      uint16
	Threshold uint8
	Expiry    uint64
	Admins    []string
	Members   []string
}

var groupInitArgs groupInitArguments

var groupInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a group and its treasury",
	Run:   groupInitRun,
}

type groupMemberArguments struct {
	txArguments
	Group  string
	Member string
	Admin  bool
}

var addMemberArgs, removeMemberArgs groupMemberArguments

var addMemberCmd = &cobra.Command{
	Use:   "add-member",
	Short: "Add a member to a group",
	Run: func(cmd *cobra.Command, args []string) {
		groupMemberRun(&addMemberArgs, tx.MemberOpAdd)
	},
}

var removeMemberCmd = &cobra.Command{
	Use:   "remove-member",
	Short: "Remove a member from a group",
	Run: func(cmd *cobra.Command, args []string) {
		groupMemberRun(&removeMemberArgs, tx.MemberOpRemove)
	},
}

type groupUpdateArguments struct {
	txArguments
	Group string
	Kind  string
	Value uint64
}

var groupUpdateArgs groupUpdateArguments

var groupUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update one group setting",
	Run:   groupUpdateRun,
}

type showArguments struct {
	Url     string
	Address string
}

var groupShowArgs showArguments

var groupShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a decoded group",
	Run:   groupShowRun,
}

func init() {
	txFlags(groupInitCmd, &groupInitArgs.txArguments)
	groupInitCmd.Flags().Uint16VarP(&groupInitArgs.Seed, "seed", "", 0, "primary seed")
	groupInitCmd.Flags().Uint8VarP(&groupInitArgs.Threshold, "threshold", "", 1, "minimum approvals")
	groupInitCmd.Flags().Uint64VarP(&groupInitArgs.Expiry, "expiry", "", 0, "maximum proposal lifetime in seconds")
	groupInitCmd.Flags().StringSliceVarP(&groupInitArgs.Admins, "admins", "", nil, "admin addresses")
	groupInitCmd.Flags().StringSliceVarP(&groupInitArgs.Members, "members", "", nil, "non-admin member addresses")

	for _, c := range []struct {
		cmd  *cobra.Command
		args *groupMemberArguments
	}{{addMemberCmd, &addMemberArgs}, {removeMemberCmd, &removeMemberArgs}} {
		txFlags(c.cmd, &c.args.txArguments)
		c.cmd.Flags().StringVarP(&c.args.Group, "group", "g", "", "group address")
		c.cmd.Flags().StringVarP(&c.args.Member, "member", "m", "", "member address")
	}
	addMemberCmd.Flags().BoolVarP(&addMemberArgs.Admin, "admin", "", false, "add as admin")

	txFlags(groupUpdateCmd, &groupUpdateArgs.txArguments)
	groupUpdateCmd.Flags().StringVarP(&groupUpdateArgs.Group, "group", "g", "", "group address")
	groupUpdateCmd.Flags().StringVarP(&groupUpdateArgs.Kind, "type", "", "threshold", "threshold, spending-limit or stale-index")
	groupUpdateCmd.Flags().Uint64VarP(&groupUpdateArgs.Value, "value", "", 0, "new value")

	urlFlag(groupShowCmd, &groupShowArgs.Url)
	groupShowCmd.Flags().StringVarP(&groupShowArgs.Address, "group", "g", "", "group address")

	groupCmd.AddCommand(groupInitCmd, addMemberCmd, removeMemberCmd, groupUpdateCmd, groupShowCmd)
}

func groupInitRun(cmd *cobra.Command, args []string) {
	a := &groupInitArgs
	admins, err := parseAddresses("admin", a.Admins)
	if err != nil {
		fmt.Println(err)
		return
	}
	members, err := parseAddresses("member", a.Members)
	if err != nil {
		fmt.Println(err)
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
	group, _, err := d.FindAddress(state.GroupSeeds(a.Seed))
	if err != nil {
		fmt.Printf("derive group err:%v\n", err)
		return
	}
	treasury, _, err := d.FindAddress(state.TreasurySeeds(group))
	if err != nil {
		fmt.Printf("derive treasury err:%v\n", err)
		return
	}
	fmt.Println("group:", group)
	fmt.Println("treasury:", treasury)
	ix := &tx.InitGroupInstruction{
		MaxExpiry:    a.Expiry,
		PrimarySeed:  a.Seed,
		MinThreshold: a.Threshold,
		NumMembers:   uint8(len(admins) + len(members)),
		NumAdmins:    uint8(len(admins)),
	}
	accounts := append([]solana.PublicKey{pv.Address(), group, treasury}, admins...)
	accounts = append(accounts, members...)
	submit(&a.txArguments, pv, accounts, ix.Encode())
}

func groupMemberRun(a *groupMemberArguments, op uint8) {
	group, err := parseAddress("group", a.Group)
	if err != nil {
		fmt.Println(err)
		return
	}
	member, err := parseAddress("member", a.Member)
	if err != nil {
		fmt.Println(err)
		return
	}
	pv, err := a.signer()
	if err != nil {
		fmt.Println(err)
		return
	}
	ix := &tx.UpdateMembersInstruction{Operation: op, Member: member, Role: types.RoleMember}
	if a.Admin {
		ix.Role = types.RoleAdmin
	}
	submit(&a.txArguments, pv, []solana.PublicKey{pv.Address(), group}, ix.Encode())
}

func groupUpdateRun(cmd *cobra.Command, args []string) {
	a := &groupUpdateArgs
	group, err := parseAddress("group", a.Group)
	if err != nil {
		fmt.Println(err)
		return
	}
	ix := &tx.UpdateGroupInstruction{Value: a.Value}
	switch a.Kind {
	case "threshold":
		if a.Value > 0xff {
			fmt.Printf("threshold %d out of range\n", a.Value)
			return
		}
		ix.UpdateType = tx.GroupUpdateThreshold
		ix.Threshold = uint8(a.Value)
	case "spending-limit":
		ix.UpdateType = tx.GroupUpdateSpendingLimit
	case "stale-index":
		ix.UpdateType = tx.GroupUpdateStaleIndex
	default:
		fmt.Printf("unknown update type %q\n", a.Kind)
		return
	}
	pv, err := a.signer()
	if err != nil {
		fmt.Println(err)
		return
	}
	submit(&a.txArguments, pv, []solana.PublicKey{pv.Address(), group}, ix.Encode())
}

func groupShowRun(cmd *cobra.Command, args []string) {
	group, err := parseAddress("group", groupShowArgs.Address)
	if err != nil {
		fmt.Println(err)
		return
	}
	cli, err := newClient(groupShowArgs.Url)
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	v, err := cli.Group(context.Background(), group)
	if err != nil {
		fmt.Printf("query group err:%v\n", err)
		return
	}
	printJSON(v)
}
