package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gagliardetto/solana-go"
)

const (
	QueryCodeNotFound   uint32 = 1
	QueryCodeBadRequest uint32 = 2
	QueryCodeNoRoute    uint32 = 404
)

func (app *MsigApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = QueryCodeNoRoute
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// queryAddress accepts either the raw 32 address bytes or its base58 text.
func queryAddress(data []byte) (addr solana.PublicKey, err error) {
	if len(data) == solana.PublicKeyLength {
		return solana.PublicKeyFromBytes(data), nil
	}
	addr, err = solana.PublicKeyFromBase58(string(data))
	if err != nil {
		err = fmt.Errorf("query address %q: %w", data, err)
	}
	return
}

func badRequest(err error) *abcitypes.ResponseQuery {
	return &abcitypes.ResponseQuery{Code: QueryCodeBadRequest, Log: err.Error()}
}

type RecordQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewRecordQuerier(db *state.StateDB, logger cmtlog.Logger) (q *RecordQuerier) {
	q = &RecordQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *RecordQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	addr, err := queryAddress(req.Data)
	if err != nil {
		return badRequest(err), nil
	}
	res = &abcitypes.ResponseQuery{Key: addr.Bytes()}
	rec, height, err := q.db.GetRecord(addr)
	if err != nil {
		q.logger.Error("query record fail", "address", addr, "err", err)
		return nil, err
	}
	res.Height = int64(height)
	if rec == nil {
		res.Code = QueryCodeNotFound
		return
	}
	res.Value, err = rec.MarshalJSON()
	return
}

type NonceQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewNonceQuerier(db *state.StateDB, logger cmtlog.Logger) (q *NonceQuerier) {
	q = &NonceQuerier{
		db:     db,
		logger: logger,
	}
	return
}

type NonceResponse struct {
	Address solana.PublicKey `json:"address"`
	Nonce   uint64           `json:"nonce"`
}

func (q *NonceQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	addr, err := queryAddress(req.Data)
	if err != nil {
		return badRequest(err), nil
	}
	nonce, height, err := q.db.GetNonce(addr)
	if err != nil {
		q.logger.Error("query nonce fail", "address", addr, "err", err)
		return nil, err
	}
	res = &abcitypes.ResponseQuery{Key: addr.Bytes(), Height: int64(height)}
	res.Value, err = json.Marshal(&NonceResponse{Address: addr, Nonce: nonce})
	return
}

// viewQuerier decodes program records through a read-only engine on the
// committed state.
type viewQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
	params state.Params
	view   func(e *state.Engine, addr solana.PublicKey) (any, error)
}

func (q *viewQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	addr, err := queryAddress(req.Data)
	if err != nil {
		return badRequest(err), nil
	}
	st := q.db.State()
	res = &abcitypes.ResponseQuery{Key: addr.Bytes(), Height: int64(st.Height())}
	v, err := q.view(state.NewEngine(q.logger, q.params, st, st), addr)
	if err != nil {
		res.Log = err.Error()
		res.Code = QueryCodeBadRequest
		if errors.Is(err, types.ErrNotFound) {
			res.Code = QueryCodeNotFound
		}
		return res, nil
	}
	res.Value, err = json.Marshal(v)
	return
}

func NewGroupQuerier(db *state.StateDB, logger cmtlog.Logger, params state.Params) Querier {
	return &viewQuerier{
		db:     db,
		logger: logger,
		params: params,
		view: func(e *state.Engine, addr solana.PublicKey) (any, error) {
			return e.Group(addr)
		},
	}
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger, params state.Params) Querier {
	return &viewQuerier{
		db:     db,
		logger: logger,
		params: params,
		view: func(e *state.Engine, addr solana.PublicKey) (any, error) {
			return e.Proposal(addr)
		},
	}
}
