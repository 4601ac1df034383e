package app

import (
	"context"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

func (app *MsigApp) getState() (st *state.State) {
	st = app.db.NewState()
	app.st = st
	return
}

func (app *MsigApp) parseTx(txDat []byte, st *state.State, allowNonceGap bool) (mtx *tx.MsigTx, err error) {
	mtx, err = tx.UnmarshalMsigTx(txDat)
	if err != nil {
		return
	}
	err = st.Verify(mtx, allowNonceGap)
	return
}

func (app *MsigApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: 0}
	st := app.db.State()
	mtx, err := app.parseTx(check.Tx, st, true)
	if err != nil {
		app.logger.Error("parse tx fail", "err", err)
		res.Code = types.CodeInvalidTx
		res.Log = err.Error()
		return res, nil
	}
	app.logger.Debug("check tx", "op", mtx.Opcode(), "nonce", mtx.Nonce)
	h, err := app.handler(mtx)
	if err != nil {
		app.logger.Error("unsupported tx", "op", mtx.Opcode(), "err", err)
		res.Code = types.ErrorCode(err)
		res.Log = err.Error()
		return res, nil
	}
	res, err = h.Check(ctx, st, mtx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: types.ErrorCode(err), Log: err.Error()}
		err = nil
	}
	return
}

// deliver executes mtx on a copy of st. The copy is adopted only on success;
// either way the sender nonce advances.
func (app *MsigApp) deliver(ctx context.Context, st *state.State, mtx *tx.MsigTx) (next *state.State, res *abcitypes.ExecTxResult, err error) {
	next = st
	h, err := app.handler(mtx)
	if err == nil {
		tmp := st.Clone()
		res, err = h.Process(ctx, tmp, mtx)
		if err == nil {
			next = tmp
		}
	}
	if err != nil {
		app.logger.Info("tx failed", "op", mtx.Opcode(), "code", types.ErrorCode(err), "err", err)
		res = &abcitypes.ExecTxResult{Code: types.ErrorCode(err), Log: err.Error()}
	}
	if res == nil {
		res = &abcitypes.ExecTxResult{}
	}
	sender, _ := mtx.Sender()
	err = next.IncNonce(sender)
	return
}

// execute runs txs in block order. Txs with an invalid envelope are reported
// and skipped without touching state.
func (app *MsigApp) execute(ctx context.Context, st *state.State, txs [][]byte) (next *state.State, res []*abcitypes.ExecTxResult, err error) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		mtx, err1 := app.parseTx(stx, st, false)
		if err1 != nil {
			app.logger.Error("unexpected tx, parse fail", "err", err1)
			res[i] = &abcitypes.ExecTxResult{Code: types.CodeInvalidTx, Log: err1.Error()}
			continue
		}
		st, res[i], err = app.deliver(ctx, st, mtx)
		if err != nil {
			app.logger.Error("increase nonce fail", "err", err)
			return nil, nil, err
		}
	}
	return st, res, nil
}

func (app *MsigApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.db.NewState()
	st.SetBlockTime(proposal.Time)
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		mtx, err := app.parseTx(stx, st, false)
		if err != nil {
			app.logger.Error("drop tx, parse fail", "err", err)
			continue
		}
		st, _, err = app.deliver(ctx, st, mtx)
		if err != nil {
			app.logger.Error("prepare tx fail", "op", mtx.Opcode(), "err", err)
			return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
		}
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *MsigApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st := app.db.NewState()
	st.SetBlockTime(proposal.Time)
	for _, stx := range proposal.Txs {
		mtx, err := app.parseTx(stx, st, false)
		if err != nil {
			app.logger.Error("reject proposal, parse fail", "err", err)
			return res, nil
		}
		st, _, err = app.deliver(ctx, st, mtx)
		if err != nil {
			app.logger.Error("reject proposal, process fail", "err", err)
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *MsigApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.getState()
	st.SetBlockTime(req.Time)
	st, res, err := app.execute(ctx, st, req.Txs)
	if err != nil {
		return nil, err
	}
	app.st = st
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *MsigApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height)
	return &abcitypes.ResponseCommit{}, nil
}
