package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/gagliardetto/solana-go"
)

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
	FlagFund      = "fund"
)

const ModuleName = "msig"
const DefaultPower = 1000

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisAccount funds a wallet at height zero.
type GenesisAccount struct {
	Address solana.PublicKey `json:"address"`
	Balance uint64           `json:"balance"`
}

type GenesisAppState struct {
	Accounts []GenesisAccount `json:"accounts"`
}

func (gs *GenesisAppState) Validate() error {
	seen := make(map[solana.PublicKey]struct{}, len(gs.Accounts))
	for _, a := range gs.Accounts {
		if a.Address.IsZero() {
			return errors.New("genesis account with empty address")
		}
		if _, ok := seen[a.Address]; ok {
			return fmt.Errorf("genesis account %v duplicated", a.Address)
		}
		seen[a.Address] = struct{}{}
	}
	return nil
}

// ParseGenesisAppState accepts an empty document as an empty allocation.
func ParseGenesisAppState(raw []byte) (gs *GenesisAppState, err error) {
	gs = &GenesisAppState{}
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	err = json.Unmarshal(raw, gs)
	if err != nil {
		return nil, err
	}
	err = gs.Validate()
	if err != nil {
		return nil, err
	}
	return
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	if _, err := ParseGenesisAppState(ag.AppState); err != nil {
		return fmt.Errorf("invalid app_state: %w", err)
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}
