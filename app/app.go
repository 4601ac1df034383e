package app

import (
	"context"
	"fmt"

	"github.com/calehh/msig-app/config"
	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/tx/handler"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &MsigApp{}

type MsigApp struct {
	cfg    *config.MsigAppConfig
	logger cmtlog.Logger
	params state.Params

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.Opcode]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewMsigApp(cfg *config.MsigAppConfig, logger cmtlog.Logger) (app *MsigApp, err error) {
	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, cfg.RentParams(), logger)
	if err != nil {
		return nil, err
	}
	return newMsigApp(cfg, db, logger)
}

func newMsigApp(cfg *config.MsigAppConfig, db *state.StateDB, logger cmtlog.Logger) (app *MsigApp, err error) {
	logger = logger.With("module", "app")
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	app = &MsigApp{
		cfg:      cfg,
		logger:   logger,
		params:   params,
		db:       db,
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	logger.Info("msig app created", "program", params.ProgramID, "votePolicy", params.VotePolicy, "adminGate", params.AdminGate)
	return
}

func (app *MsigApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *MsigApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("msig app stopped")
}

func (app *MsigApp) registerTxHandler() {
	app.txHdlrs = handler.NewHandlers(app.logger, app.params)
}

func (app *MsigApp) registerQuerier() {
	app.queriers["/records/"] = NewRecordQuerier(app.db, app.logger)
	app.queriers["/groups/"] = NewGroupQuerier(app.db, app.logger, app.params)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger, app.params)
	app.queriers["/nonces/"] = NewNonceQuerier(app.db, app.logger)
}

// handler resolves the handler of mtx. Opcodes without one fail with the
// decode error of the instruction.
func (app *MsigApp) handler(mtx *tx.MsigTx) (h handler.TxHandler, err error) {
	h, ok := app.txHdlrs[mtx.Opcode()]
	if ok {
		return h, nil
	}
	_, _, err = tx.DecodeInstruction(mtx.Data)
	if err == nil {
		err = fmt.Errorf("%v: %w", mtx.Opcode(), types.ErrUnsupportedInstruction)
	}
	return nil, err
}

func (app *MsigApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	gs, err := types.ParseGenesisAppState(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse app state fail", "err", err)
		return nil, err
	}
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetBlockTime(chain.Time)
	for _, a := range gs.Accounts {
		err = st.Credit(a.Address, a.Balance)
		if err != nil {
			app.logger.Error("InitChain credit account fail", "address", a.Address, "err", err)
			return nil, err
		}
	}
	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	app.logger.Info("InitChain", "chainId", chain.ChainId, "accounts", len(gs.Accounts))
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *MsigApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Data:             types.ModuleName,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *MsigApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *MsigApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *MsigApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *MsigApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *MsigApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *MsigApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
