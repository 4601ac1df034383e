package handler

import (
	"context"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type TxHandler interface {
	Check(ctx context.Context, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ExecTxResult, err error)
}

// NewHandlers builds the handler for every supported opcode.
func NewHandlers(logger cmtlog.Logger, params state.Params) map[tx.Opcode]TxHandler {
	return map[tx.Opcode]TxHandler{
		tx.OpInitGroup:         NewInitGroupTxHandler(logger, params),
		tx.OpCreateProposal:    NewCreateProposalTxHandler(logger, params),
		tx.OpVote:              NewVoteTxHandler(logger, params),
		tx.OpCreateTransaction: NewCreateTransactionTxHandler(logger, params),
		tx.OpUpdateMembers:     NewUpdateMembersTxHandler(logger, params),
		tx.OpUpdateGroup:       NewUpdateGroupTxHandler(logger, params),
	}
}

type base struct {
	logger cmtlog.Logger
	params state.Params
}

func newBase(logger cmtlog.Logger, params state.Params, name string) base {
	return base{
		logger: logger.With("module", name),
		params: params,
	}
}

func (b *base) engine(st *state.State) *state.Engine {
	return state.NewEngine(b.logger, b.params, st, st)
}

func signers(mtx *tx.MsigTx) state.Signers {
	return state.NewSigners(mtx.Signers...)
}

func payload(mtx *tx.MsigTx) []byte {
	_, p, _ := tx.SplitOpcode(mtx.Data)
	return p
}

// check dry-runs h on a copy of st.
func check(ctx context.Context, h TxHandler, logger cmtlog.Logger, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	_, err1 := h.Process(ctx, st.Clone(), mtx)
	if err1 != nil {
		logger.Info("CheckTx fail", "op", mtx.Opcode(), "err", err1)
		res.Code = types.ErrorCode(err1)
		res.Log = err1.Error()
	}
	return
}

func result(events ...abcitypes.Event) *abcitypes.ExecTxResult {
	return &abcitypes.ExecTxResult{Events: events}
}
