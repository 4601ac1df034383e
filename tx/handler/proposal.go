package handler

import (
	"context"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type CreateProposalTxHandler struct {
	base
}

func NewCreateProposalTxHandler(logger cmtlog.Logger, params state.Params) (h *CreateProposalTxHandler) {
	return &CreateProposalTxHandler{base: newBase(logger, params, "proposalTx")}
}

func (h *CreateProposalTxHandler) Check(ctx context.Context, st *state.State, mtx *tx.MsigTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h, h.logger, st, mtx)
}

func (h *CreateProposalTxHandler) Process(ctx context.Context, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ExecTxResult, err error) {
	ix, err := tx.DecodeCreateProposal(payload(mtx))
	if err != nil {
		return nil, err
	}
	event, err := h.engine(st).CreateProposal(signers(mtx), mtx.Accounts, ix)
	if err != nil {
		return nil, err
	}
	return result(types.EncodeEventCreateProposal(event)), nil
}

type VoteTxHandler struct {
	base
}

func NewVoteTxHandler(logger cmtlog.Logger, params state.Params) (h *VoteTxHandler) {
	return &VoteTxHandler{base: newBase(logger, params, "voteTx")}
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, mtx *tx.MsigTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h, h.logger, st, mtx)
}

func (h *VoteTxHandler) Process(ctx context.Context, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ExecTxResult, err error) {
	ix, err := tx.DecodeVote(payload(mtx))
	if err != nil {
		return nil, err
	}
	event, err := h.engine(st).Vote(signers(mtx), mtx.Accounts, ix)
	if err != nil {
		return nil, err
	}
	return result(types.EncodeEventVote(event)), nil
}
