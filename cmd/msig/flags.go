package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/msig-app/agent"
	"github.com/calehh/msig-app/config"
	"github.com/calehh/msig-app/crypto"
	"github.com/calehh/msig-app/state"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

const defaultKeyPath = "./config/priv_validator_key.json"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "msig node rpc url")
}

func keyFlag(cmd *cobra.Command, key *string) {
	cmd.Flags().StringVarP(key, "skeyPath", "s", defaultKeyPath, "private key path")
}

func programFlag(cmd *cobra.Command, program *string) {
	cmd.Flags().StringVarP(program, "program", "p", config.DefaultProgramID, "program id used to derive addresses")
}

func newClient(url string) (*agent.ChainClient, error) {
	return agent.NewChainClient(url, log.NewNopLogger())
}

func newDeriver(program string) (*state.ProgramDeriver, error) {
	id, err := solana.PublicKeyFromBase58(program)
	if err != nil {
		return nil, fmt.Errorf("program id %q: %w", program, err)
	}
	return state.NewProgramDeriver(id), nil
}

func parseAddress(name, s string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%s %q: %w", name, s, err)
	}
	return pk, nil
}

func parseAddresses(name string, ss []string) ([]solana.PublicKey, error) {
	pks := make([]solana.PublicKey, 0, len(ss))
	for _, s := range ss {
		pk, err := parseAddress(name, s)
		if err != nil {
			return nil, err
		}
		pks = append(pks, pk)
	}
	return pks, nil
}

func printJSON(v any) {
	dat, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("json encode err:%v\n", err)
		return
	}
	fmt.Println(string(dat))
}

// txArguments are shared by every command that submits an instruction.
type txArguments struct {
	Url     string
	Skey    string
	Program string
	NoSend  bool
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	keyFlag(cmd, &args.Skey)
	programFlag(cmd, &args.Program)
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "print the signed transaction instead of sending it")
}

// signer loads the signing key; its public key is the wallet address.
func (args *txArguments) signer() (*crypto.PV, error) {
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return nil, fmt.Errorf("load key %s: %w", args.Skey, err)
	}
	return pv, nil
}

func submit(args *txArguments, pv *crypto.PV, accounts []solana.PublicKey, data []byte) {
	cli, err := newClient(args.Url)
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	ctx := context.Background()
	mtx, err := cli.Build(ctx, pv.PrivKey(), accounts, data)
	if err != nil {
		fmt.Printf("build tx err:%v\n", err)
		return
	}
	if args.NoSend {
		printJSON(mtx)
		return
	}
	res, err := cli.Broadcast(ctx, mtx)
	if err != nil {
		fmt.Printf("broadcast tx err:%v\n", err)
		return
	}
	printJSON(res)
}
