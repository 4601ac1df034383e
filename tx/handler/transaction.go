package handler

import (
	"context"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type CreateTransactionTxHandler struct {
	base
}

func NewCreateTransactionTxHandler(logger cmtlog.Logger, params state.Params) (h *CreateTransactionTxHandler) {
	return &CreateTransactionTxHandler{base: newBase(logger, params, "transactionTx")}
}

func (h *CreateTransactionTxHandler) Check(ctx context.Context, st *state.State, mtx *tx.MsigTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h, h.logger, st, mtx)
}

func (h *CreateTransactionTxHandler) Process(ctx context.Context, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ExecTxResult, err error) {
	ix, err := tx.DecodeCreateTransaction(payload(mtx))
	if err != nil {
		return nil, err
	}
	event, err := h.engine(st).CreateTransaction(signers(mtx), mtx.Accounts, ix)
	if err != nil {
		return nil, err
	}
	return result(types.EncodeEventCreateTransaction(event)), nil
}
