package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	app_config "github.com/calehh/msig-app/config"
	"github.com/calehh/msig-app/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	Validator  string          `json:"validator" yaml:"validator"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long: `Initialize validators's and node's configuration files.
Wallets listed with --fund address:amount are credited in the genesis app state.`,
	Args: cobra.ExactArgs(0),
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "config")
	initCmd.Flags().StringSlice(types.FlagFund, nil, "genesis wallet as address:amount, repeatable")
}

// parseFunds reads address:amount pairs.
func parseFunds(entries []string) ([]types.GenesisAccount, error) {
	accounts := make([]types.GenesisAccount, 0, len(entries))
	for _, e := range entries {
		addr, amount, ok := strings.Cut(e, ":")
		if !ok {
			return nil, fmt.Errorf("fund %q: want address:amount", e)
		}
		pk, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("fund %q: %w", e, err)
		}
		balance, err := strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("fund %q: %w", e, err)
		}
		accounts = append(accounts, types.GenesisAccount{Address: pk, Balance: balance})
	}
	return accounts, nil
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	funds, _ := cmd.Flags().GetStringSlice(types.FlagFund)

	if chainID == "" {
		chainID = fmt.Sprintf("test-chain-%v", rand.Uint64())
	}
	appConfig := app_config.DefaultConfig(home)

	genFile := appConfig.GenesisFile()
	if _, err := os.Stat(genFile); err == nil && !overwrite {
		return fmt.Errorf("genesis file %s already exists, use --%s", genFile, types.FlagOverwrite)
	}

	accounts, err := parseFunds(funds)
	if err != nil {
		return err
	}
	appState, err := json.Marshal(&types.GenesisAppState{Accounts: accounts})
	if err != nil {
		return err
	}

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	vals := []types.GenesisValidator{{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower}}

	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appState,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("Failed to export genesis file %v", err)
	}
	if err = app_config.WriteConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"), appConfig); err != nil {
		return fmt.Errorf("Failed to write config file %v", err)
	}
	toPrint := printInfo{
		ChainID:    chainID,
		NodeID:     nodeID,
		Validator:  solana.PublicKeyFromBytes(pk.Bytes()).String(),
		AppMessage: appGenesis.AppState,
	}
	return displayInfo(toPrint)
}
