package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/msig-app/app"
	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	msig_types "github.com/calehh/msig-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/gagliardetto/solana-go"
)

// ChainRPC is the subset of the cometbft RPC client used to talk to a node.
type ChainRPC interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	ABCIQuery(ctx context.Context, path string, data cmtbytes.HexBytes) (*coretypes.ResultABCIQuery, error)
	BroadcastTxSync(ctx context.Context, tx cmttypes.Tx) (*coretypes.ResultBroadcastTx, error)
}

type Client interface {
	ChainID(ctx context.Context) (string, error)
	Nonce(ctx context.Context, addr solana.PublicKey) (uint64, error)
	Record(ctx context.Context, addr solana.PublicKey) (*state.Record, error)
	Group(ctx context.Context, addr solana.PublicKey) (*state.GroupView, error)
	Proposal(ctx context.Context, addr solana.PublicKey) (*state.ProposalView, error)
	Send(ctx context.Context, key ed25519.PrivKey, accounts []solana.PublicKey, data []byte) (*coretypes.ResultBroadcastTx, error)
}

var _ Client = &ChainClient{}

type ChainClient struct {
	rpc     ChainRPC
	logger  cmtlog.Logger
	chainID string
}

func NewChainClient(url string, logger cmtlog.Logger) (*ChainClient, error) {
	cli, err := comethttp.New(url, "/websocket")
	if err != nil {
		return nil, err
	}
	return NewChainClientWithRPC(cli, logger), nil
}

func NewChainClientWithRPC(rpc ChainRPC, logger cmtlog.Logger) *ChainClient {
	return &ChainClient{
		rpc:    rpc,
		logger: logger.With("module", "client"),
	}
}

func (c *ChainClient) ChainID(ctx context.Context) (string, error) {
	if c.chainID != "" {
		return c.chainID, nil
	}
	status, err := c.rpc.Status(ctx)
	if err != nil {
		c.logger.Error("get status fail", "err", err)
		return "", err
	}
	c.chainID = status.NodeInfo.Network
	return c.chainID, nil
}

func (c *ChainClient) query(ctx context.Context, path string, addr solana.PublicKey) ([]byte, error) {
	res, err := c.rpc.ABCIQuery(ctx, path, addr.Bytes())
	if err != nil {
		c.logger.Error("ABCIQuery fail", "path", path, "err", err)
		return nil, err
	}
	switch res.Response.Code {
	case 0:
		return res.Response.Value, nil
	case app.QueryCodeNotFound:
		return nil, fmt.Errorf("%s%v: %w", path, addr, msig_types.ErrNotFound)
	default:
		return nil, fmt.Errorf("%s%v: code %d %s", path, addr, res.Response.Code, res.Response.Log)
	}
}

func (c *ChainClient) Nonce(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	dat, err := c.query(ctx, "/nonces/", addr)
	if err != nil {
		return 0, err
	}
	var res app.NonceResponse
	if err = json.Unmarshal(dat, &res); err != nil {
		return 0, err
	}
	return res.Nonce, nil
}

func (c *ChainClient) Record(ctx context.Context, addr solana.PublicKey) (*state.Record, error) {
	dat, err := c.query(ctx, "/records/", addr)
	if err != nil {
		return nil, err
	}
	rec := new(state.Record)
	if err = rec.UnmarshalJSON(dat); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *ChainClient) Group(ctx context.Context, addr solana.PublicKey) (*state.GroupView, error) {
	dat, err := c.query(ctx, "/groups/", addr)
	if err != nil {
		return nil, err
	}
	v := new(state.GroupView)
	if err = json.Unmarshal(dat, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *ChainClient) Proposal(ctx context.Context, addr solana.PublicKey) (*state.ProposalView, error) {
	dat, err := c.query(ctx, "/proposals/", addr)
	if err != nil {
		return nil, err
	}
	v := new(state.ProposalView)
	if err = json.Unmarshal(dat, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Build wraps one instruction signed by key at the sender's current nonce.
func (c *ChainClient) Build(ctx context.Context, key ed25519.PrivKey, accounts []solana.PublicKey, data []byte) (*tx.MsigTx, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	signer := solana.PublicKeyFromBytes(key.PubKey().Bytes())
	nonce, err := c.Nonce(ctx, signer)
	if err != nil {
		return nil, err
	}
	mtx := &tx.MsigTx{
		Version:  tx.MsigTxVersion0,
		Nonce:    nonce,
		Signers:  []solana.PublicKey{signer},
		Accounts: accounts,
		Data:     data,
	}
	if err = mtx.Sign(key, chainID); err != nil {
		return nil, err
	}
	return mtx, nil
}

func (c *ChainClient) Broadcast(ctx context.Context, mtx *tx.MsigTx) (*coretypes.ResultBroadcastTx, error) {
	dat, err := tx.MarshalMsigTx(mtx)
	if err != nil {
		return nil, err
	}
	res, err := c.rpc.BroadcastTxSync(ctx, dat)
	if err != nil {
		c.logger.Error("broadcast tx fail", "err", err)
		return nil, err
	}
	if res.Code != 0 {
		c.logger.Info("tx rejected", "hash", res.Hash, "code", res.Code, "log", res.Log)
	}
	return res, nil
}

func (c *ChainClient) Send(ctx context.Context, key ed25519.PrivKey, accounts []solana.PublicKey, data []byte) (*coretypes.ResultBroadcastTx, error) {
	mtx, err := c.Build(ctx, key, accounts, data)
	if err != nil {
		return nil, err
	}
	return c.Broadcast(ctx, mtx)
}
