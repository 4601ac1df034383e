package handler

import (
	"context"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type InitGroupTxHandler struct {
	base
}

func NewInitGroupTxHandler(logger cmtlog.Logger, params state.Params) (h *InitGroupTxHandler) {
	return &InitGroupTxHandler{base: newBase(logger, params, "initGroupTx")}
}

func (h *InitGroupTxHandler) Check(ctx context.Context, st *state.State, mtx *tx.MsigTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h, h.logger, st, mtx)
}

func (h *InitGroupTxHandler) Process(ctx context.Context, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ExecTxResult, err error) {
	ix, err := tx.DecodeInitGroup(payload(mtx))
	if err != nil {
		return nil, err
	}
	event, err := h.engine(st).InitGroup(signers(mtx), mtx.Accounts, ix)
	if err != nil {
		return nil, err
	}
	return result(types.EncodeEventInitGroup(event)), nil
}

type UpdateMembersTxHandler struct {
	base
}

func NewUpdateMembersTxHandler(logger cmtlog.Logger, params state.Params) (h *UpdateMembersTxHandler) {
	return &UpdateMembersTxHandler{base: newBase(logger, params, "updateMembersTx")}
}

func (h *UpdateMembersTxHandler) Check(ctx context.Context, st *state.State, mtx *tx.MsigTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h, h.logger, st, mtx)
}

func (h *UpdateMembersTxHandler) Process(ctx context.Context, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ExecTxResult, err error) {
	ix, err := tx.DecodeUpdateMembers(payload(mtx))
	if err != nil {
		return nil, err
	}
	event, err := h.engine(st).UpdateMembers(signers(mtx), mtx.Accounts, ix)
	if err != nil {
		return nil, err
	}
	if ix.Operation == tx.MemberOpRemove {
		return result(types.EncodeEventRemoveMember(event)), nil
	}
	return result(types.EncodeEventAddMember(event)), nil
}

type UpdateGroupTxHandler struct {
	base
}

func NewUpdateGroupTxHandler(logger cmtlog.Logger, params state.Params) (h *UpdateGroupTxHandler) {
	return &UpdateGroupTxHandler{base: newBase(logger, params, "updateGroupTx")}
}

func (h *UpdateGroupTxHandler) Check(ctx context.Context, st *state.State, mtx *tx.MsigTx) (*abcitypes.ResponseCheckTx, error) {
	return check(ctx, h, h.logger, st, mtx)
}

func (h *UpdateGroupTxHandler) Process(ctx context.Context, st *state.State, mtx *tx.MsigTx) (res *abcitypes.ExecTxResult, err error) {
	ix, err := tx.DecodeUpdateGroup(payload(mtx))
	if err != nil {
		return nil, err
	}
	event, err := h.engine(st).UpdateGroup(signers(mtx), mtx.Accounts, ix)
	if err != nil {
		return nil, err
	}
	return result(types.EncodeEventUpdateGroup(event)), nil
}
