package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calehh/msig-app/state"
	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

const DefaultProgramID = "4ibrEMW5F6hKnkW4jVedswYv6H6VtwPN6ar6dvXDN1nT"

type RentConfig struct {
	PerByte   uint64 `mapstructure:"per_byte"`
	Overhead  uint64 `mapstructure:"overhead"`
	Threshold uint64 `mapstructure:"threshold"`
}

type IndexerConfig struct {
	Enable bool   `mapstructure:"enable"`
	Listen string `mapstructure:"listen"`
	DB     string `mapstructure:"db"`
}

type MsigAppConfig struct {
	Home string `mapstructure:"-"`

	ProgramID  string        `mapstructure:"program_id"`
	VotePolicy string        `mapstructure:"vote_policy"`
	AdminGate  string        `mapstructure:"admin_gate"`
	Rent       RentConfig    `mapstructure:"rent"`
	Indexer    IndexerConfig `mapstructure:"indexer"`
}

func DefaultMsigAppConfig(home string) *MsigAppConfig {
	rent := state.DefaultRent()
	return &MsigAppConfig{
		Home:       home,
		ProgramID:  DefaultProgramID,
		VotePolicy: string(state.VotePolicyRejectDuplicate),
		AdminGate:  string(state.AdminGateSigner),
		Rent: RentConfig{
			PerByte:   rent.PerByte,
			Overhead:  rent.Overhead,
			Threshold: rent.Threshold,
		},
		Indexer: IndexerConfig{
			Enable: true,
			Listen: "127.0.0.1:8080",
			DB:     "indexer.db",
		},
	}
}

// RentParams falls back to the default rent for zero fields.
func (c *MsigAppConfig) RentParams() state.Rent {
	rent := state.DefaultRent()
	if c.Rent.PerByte != 0 {
		rent.PerByte = c.Rent.PerByte
	}
	if c.Rent.Overhead != 0 {
		rent.Overhead = c.Rent.Overhead
	}
	if c.Rent.Threshold != 0 {
		rent.Threshold = c.Rent.Threshold
	}
	return rent
}

func (c *MsigAppConfig) Params() (params state.Params, err error) {
	id := c.ProgramID
	if id == "" {
		id = DefaultProgramID
	}
	programID, err := solana.PublicKeyFromBase58(id)
	if err != nil {
		return params, fmt.Errorf("program_id %q: %w", id, err)
	}
	params = state.DefaultParams(programID)
	params.VotePolicy, err = state.ParseVotePolicy(c.VotePolicy)
	if err != nil {
		return
	}
	params.AdminGate, err = state.ParseAdminGate(c.AdminGate)
	return
}

func (c *MsigAppConfig) ValidateBasic() error {
	_, err := c.Params()
	return err
}

// IndexerDBPath resolves a relative indexer db under home.
func (c *MsigAppConfig) IndexerDBPath() string {
	if filepath.IsAbs(c.Indexer.DB) {
		return c.Indexer.DB
	}
	return filepath.Join(c.Home, c.Indexer.DB)
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *MsigAppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.msig")
	}
	config := &Config{
		DefaultMsigCometConfig(),
		DefaultMsigAppConfig(home),
	}
	config.SetRoot(home)
	_ = os.MkdirAll(home+"/config", 0755)
	return config
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.App.ValidateBasic()
}

// LoadConfig reads home/config/config.toml over the defaults.
func LoadConfig(home string) (cfg *Config, err error) {
	cfg = DefaultConfig(home)
	v := viper.New()
	v.SetConfigFile(filepath.Join(cfg.RootDir, "config", "config.toml"))
	if err = v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err = v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.SetRoot(cfg.RootDir)
	cfg.App.Home = cfg.RootDir
	if err = cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultMsigCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
