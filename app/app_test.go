package app

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/calehh/msig-app/config"
	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = "msig-test"

type account struct {
	key   ed25519.PrivKey
	pk    solana.PublicKey
	nonce uint64
}

func newAccount() *account {
	key := ed25519.GenPrivKey()
	return &account{key: key, pk: solana.PublicKeyFromBytes(key.PubKey().Bytes())}
}

// sign builds a tx from a and advances its local nonce.
func (a *account) sign(t *testing.T, accounts []solana.PublicKey, data []byte) []byte {
	mtx := &tx.MsigTx{
		Version:  tx.MsigTxVersion0,
		Nonce:    a.nonce,
		Signers:  []solana.PublicKey{a.pk},
		Accounts: accounts,
		Data:     data,
	}
	require.NoError(t, mtx.Sign(a.key, testChainID))
	dat, err := tx.MarshalMsigTx(mtx)
	require.NoError(t, err)
	a.nonce++
	return dat
}

type testApp struct {
	*MsigApp
	t       *testing.T
	deriver *state.ProgramDeriver
	height  int64
}

func newTestApp(t *testing.T, funded ...*account) *testApp {
	db, err := state.NewMemStateDB(state.DefaultRent(), log.NewNopLogger())
	require.NoError(t, err)
	cfg := config.DefaultMsigAppConfig(t.TempDir())
	app, err := newMsigApp(cfg, db, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(app.Stop)

	gs := types.GenesisAppState{}
	for _, a := range funded {
		gs.Accounts = append(gs.Accounts, types.GenesisAccount{Address: a.pk, Balance: 1_000_000_000_000})
	}
	raw, err := json.Marshal(gs)
	require.NoError(t, err)
	res, err := app.InitChain(context.Background(), &abcitypes.RequestInitChain{
		ChainId:       testChainID,
		Time:          time.Unix(1_700_000_000, 0),
		AppStateBytes: raw,
	})
	require.NoError(t, err)
	require.Len(t, res.AppHash, 32)
	return &testApp{MsigApp: app, t: t, deriver: state.NewProgramDeriver(app.params.ProgramID)}
}

// block finalizes and commits txs, returning their results.
func (a *testApp) block(txs ...[]byte) []*abcitypes.ExecTxResult {
	a.height++
	res, err := a.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{
		Height: a.height,
		Time:   time.Unix(1_700_000_000+a.height*5, 0),
		Txs:    txs,
	})
	require.NoError(a.t, err)
	require.Len(a.t, res.TxResults, len(txs))
	_, err = a.Commit(context.Background(), &abcitypes.RequestCommit{})
	require.NoError(a.t, err)
	return res.TxResults
}

func (a *testApp) query(path string, data []byte) *abcitypes.ResponseQuery {
	res, err := a.Query(context.Background(), &abcitypes.RequestQuery{Path: path, Data: data})
	require.NoError(a.t, err)
	return res
}

func (a *testApp) derive(seeds [][]byte) (solana.PublicKey, uint8) {
	addr, bump, err := a.deriver.FindAddress(seeds)
	require.NoError(a.t, err)
	return addr, bump
}

func (a *testApp) initGroupTx(creator *account, seed uint16, admins, members []*account) ([]byte, solana.PublicKey) {
	g, _ := a.derive(state.GroupSeeds(seed))
	tr, _ := a.derive(state.TreasurySeeds(g))
	accounts := []solana.PublicKey{creator.pk, g, tr}
	for _, m := range append(admins, members...) {
		accounts = append(accounts, m.pk)
	}
	ix := &tx.InitGroupInstruction{
		MaxExpiry:    3600,
		PrimarySeed:  seed,
		MinThreshold: 1,
		NumMembers:   uint8(len(admins) + len(members)),
		NumAdmins:    uint8(len(admins)),
	}
	return creator.sign(a.t, accounts, ix.Encode()), g
}

func TestInitChainGenesisAccounts(t *testing.T) {
	alice := newAccount()
	app := newTestApp(t, alice)

	res := app.query("/records/", alice.pk.Bytes())
	require.Equal(t, uint32(0), res.Code)
	var rec state.Record
	require.NoError(t, rec.UnmarshalJSON(res.Value))
	assert.Equal(t, uint64(1_000_000_000_000), rec.Balance)

	res = app.query("/records", []byte(solana.NewWallet().PublicKey().String()))
	assert.Equal(t, QueryCodeNotFound, res.Code)

	info, err := app.Info(context.Background(), &abcitypes.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.LastBlockHeight)
	assert.NotEmpty(t, info.LastBlockAppHash)
}

func TestInitChainRejectsBadAppState(t *testing.T) {
	db, err := state.NewMemStateDB(state.DefaultRent(), log.NewNopLogger())
	require.NoError(t, err)
	app, err := newMsigApp(config.DefaultMsigAppConfig(t.TempDir()), db, log.NewNopLogger())
	require.NoError(t, err)
	defer app.Stop()
	_, err = app.InitChain(context.Background(), &abcitypes.RequestInitChain{ChainId: testChainID, AppStateBytes: []byte("{")})
	require.Error(t, err)
}

func TestBlockLifecycle(t *testing.T) {
	creator, admin, member := newAccount(), newAccount(), newAccount()
	app := newTestApp(t, creator, admin, member)

	initTx, g := app.initGroupTx(creator, 1, []*account{admin}, []*account{member})
	results := app.block(initTx)
	require.Equal(t, uint32(0), results[0].Code, results[0].Log)
	require.Len(t, results[0].Events, 1)
	assert.Equal(t, types.EventInitGroupType, results[0].Events[0].Type)

	res := app.query("/groups/", g.Bytes())
	require.Equal(t, uint32(0), res.Code, res.Log)
	var gv state.GroupView
	require.NoError(t, json.Unmarshal(res.Value, &gv))
	require.Len(t, gv.Members, 2)
	assert.Equal(t, admin.pk, gv.Members[0].Address)
	assert.Equal(t, types.RoleAdmin, gv.Members[0].Role)
	assert.Equal(t, member.pk, gv.Members[1].Address)
	assert.Equal(t, int64(1), res.Height)

	_, gBump := app.derive(state.GroupSeeds(1))
	p, pBump := app.derive(state.ProposalSeeds(g, 3))
	cp := &tx.CreateProposalInstruction{Expiry: 600, PrimarySeed: 3}
	vote := &tx.VoteInstruction{GroupBump: gBump, ProposalBump: pBump, Choice: types.VoteYes}
	results = app.block(
		admin.sign(t, []solana.PublicKey{admin.pk, p, g}, cp.Encode()),
		member.sign(t, []solana.PublicKey{member.pk, g, p}, vote.Encode()),
		member.sign(t, []solana.PublicKey{member.pk, g, p}, vote.Encode()),
		[]byte("garbage"),
	)
	assert.Equal(t, uint32(0), results[0].Code, results[0].Log)
	assert.Equal(t, uint32(0), results[1].Code, results[1].Log)
	assert.Equal(t, types.ErrorCode(types.ErrDuplicateEntry), results[2].Code)
	assert.Equal(t, types.CodeInvalidTx, results[3].Code)

	res = app.query("/proposals/", p.Bytes())
	require.Equal(t, uint32(0), res.Code, res.Log)
	var pv state.ProposalView
	require.NoError(t, json.Unmarshal(res.Value, &pv))
	assert.Equal(t, []solana.PublicKey{member.pk}, pv.Yes)
	assert.Empty(t, pv.No)

	// the failed duplicate vote still consumed a nonce
	res = app.query("/nonces/", member.pk.Bytes())
	var nr NonceResponse
	require.NoError(t, json.Unmarshal(res.Value, &nr))
	assert.Equal(t, uint64(2), nr.Nonce)

	info, err := app.Info(context.Background(), &abcitypes.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.LastBlockHeight)
}

func TestFailedTxLeavesStateUntouched(t *testing.T) {
	creator, admin := newAccount(), newAccount()
	app := newTestApp(t, creator, admin)
	initTx, g := app.initGroupTx(creator, 2, []*account{admin}, nil)
	app.block(initTx)

	before := app.query("/records/", g.Bytes()).Value
	// removing a non-member fails after nothing was written
	ix := &tx.UpdateMembersInstruction{Operation: tx.MemberOpRemove, Member: solana.NewWallet().PublicKey()}
	results := app.block(admin.sign(t, []solana.PublicKey{admin.pk, g}, ix.Encode()))
	assert.Equal(t, types.ErrorCode(types.ErrNotFound), results[0].Code)
	assert.Equal(t, before, app.query("/records/", g.Bytes()).Value)
}

func TestCheckTx(t *testing.T) {
	creator, admin := newAccount(), newAccount()
	app := newTestApp(t, creator, admin)
	ctx := context.Background()

	initTx, _ := app.initGroupTx(creator, 1, []*account{admin}, nil)
	res, err := app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: initTx})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Code, res.Log)

	// nonce gaps are allowed in the mempool
	ahead, _ := app.initGroupTx(creator, 2, []*account{admin}, nil)
	res, err = app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: ahead})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Code, res.Log)

	res, err = app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: []byte("{}")})
	require.NoError(t, err)
	assert.Equal(t, types.CodeInvalidTx, res.Code)

	closeTx := admin.sign(t, []solana.PublicKey{admin.pk}, []byte{byte(tx.OpCloseProposal)})
	res, err = app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: closeTx})
	require.NoError(t, err)
	assert.Equal(t, types.ErrorCode(types.ErrUnsupportedInstruction), res.Code)

	unknown := admin.sign(t, []solana.PublicKey{admin.pk}, []byte{0x42})
	res, err = app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: unknown})
	require.NoError(t, err)
	assert.Equal(t, types.ErrorCode(types.ErrInvalidData), res.Code)
}

func TestCheckTxStaleNonce(t *testing.T) {
	creator, admin := newAccount(), newAccount()
	app := newTestApp(t, creator, admin)
	initTx, _ := app.initGroupTx(creator, 1, []*account{admin}, nil)
	app.block(initTx)

	creator.nonce = 0
	stale, _ := app.initGroupTx(creator, 5, []*account{admin}, nil)
	res, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: stale})
	require.NoError(t, err)
	assert.Equal(t, types.CodeInvalidTx, res.Code)
}

func TestPrepareAndProcessProposal(t *testing.T) {
	creator, admin := newAccount(), newAccount()
	app := newTestApp(t, creator, admin)
	ctx := context.Background()

	first, _ := app.initGroupTx(creator, 1, []*account{admin}, nil)
	second, _ := app.initGroupTx(creator, 2, []*account{admin}, nil)
	prep, err := app.PrepareProposal(ctx, &abcitypes.RequestPrepareProposal{
		Height:     1,
		Time:       time.Unix(1_700_000_005, 0),
		MaxTxBytes: 1 << 20,
		Txs:        [][]byte{[]byte("garbage"), first, second, first},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{first, second}, prep.Txs)

	proc, err := app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Height: 1, Txs: prep.Txs})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_ACCEPT, proc.Status)

	proc, err = app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Height: 1, Txs: [][]byte{second}})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_REJECT, proc.Status)

	proc, err = app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Height: 1})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_ACCEPT, proc.Status)
}

func TestQueryRoutes(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, QueryCodeNoRoute, app.query("/validators/", nil).Code)
	assert.Equal(t, QueryCodeBadRequest, app.query("/groups/", []byte("short")).Code)
	assert.Equal(t, QueryCodeNotFound, app.query("/groups/", solana.NewWallet().PublicKey().Bytes()).Code)

	res := app.query("/nonces/", []byte(solana.NewWallet().PublicKey().String()))
	require.Equal(t, uint32(0), res.Code)
	assert.Contains(t, string(res.Value), fmt.Sprintf(`"nonce":%d`, 0))
}
