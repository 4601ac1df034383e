package state

import (
	"math/rand"
	"testing"

	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitGroupEmpty(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet()
	g := f.initGroup(creator, 1, nil, nil)

	h := f.groupHeader(g)
	assert.Equal(t, uint8(0), h.NumMembers)
	assert.Equal(t, uint8(0), h.AdminCounter)
	assert.Equal(t, uint16(1), h.PrimarySeed)
	assert.Equal(t, uint64(1_700_000_000), h.Seed)
	assert.Len(t, f.record(g).Data, types.GroupHeaderLen)
	assert.True(t, f.record(g).OwnedBy(testProgramID))

	_, tr := f.groupAddr(1)
	assert.Equal(t, tr, h.Treasury)
	assert.True(t, f.record(tr).OwnedBy(testProgramID))
	f.requireDeposit(g)
	f.requireDeposit(tr)
}

func TestInitGroupWithMembers(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet()
	e := ids(3)
	g := f.initGroup(creator, 2, e[:1], e[1:])

	h := f.groupHeader(g)
	assert.Equal(t, uint8(3), h.NumMembers)
	assert.Equal(t, uint8(1), h.AdminCounter)
	assert.Equal(t, e, f.members(g))
	f.requireDeposit(g)
}

func TestInitGroupErrors(t *testing.T) {
	f := newFixture(t)
	creator := f.wallet()
	g, tr := f.groupAddr(3)
	e := ids(2)

	_, err := f.eng.InitGroup(NewSigners(creator), []solana.PublicKey{creator, g}, &tx.InitGroupInstruction{PrimarySeed: 3})
	assert.ErrorIs(t, err, types.ErrInsufficientInputs)

	_, err = f.eng.InitGroup(NewSigners(creator), []solana.PublicKey{creator, g, tr, e[0]},
		&tx.InitGroupInstruction{PrimarySeed: 3, NumMembers: 2})
	assert.ErrorIs(t, err, types.ErrInsufficientInputs)

	_, err = f.eng.InitGroup(NewSigners(creator), []solana.PublicKey{creator, g, tr, e[0]},
		&tx.InitGroupInstruction{PrimarySeed: 3, NumMembers: 1, NumAdmins: 2})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = f.eng.InitGroup(NewSigners(creator), []solana.PublicKey{creator, g, tr},
		&tx.InitGroupInstruction{PrimarySeed: 4})
	assert.ErrorIs(t, err, types.ErrAddressMismatch)

	_, err = f.eng.InitGroup(NewSigners(creator), []solana.PublicKey{creator, g, creator},
		&tx.InitGroupInstruction{PrimarySeed: 3})
	assert.ErrorIs(t, err, types.ErrAddressMismatch)

	_, err = f.eng.InitGroup(NewSigners(), []solana.PublicKey{creator, g, tr},
		&tx.InitGroupInstruction{PrimarySeed: 3})
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = f.eng.InitGroup(NewSigners(creator), []solana.PublicKey{creator, g, tr, e[0], e[0]},
		&tx.InitGroupInstruction{PrimarySeed: 3, NumMembers: 2})
	assert.ErrorIs(t, err, types.ErrDuplicateEntry)

	f.initGroup(creator, 3, nil, nil)
	_, err = f.eng.InitGroup(NewSigners(creator), []solana.PublicKey{creator, g, tr},
		&tx.InitGroupInstruction{PrimarySeed: 3})
	assert.ErrorIs(t, err, types.ErrAlreadyExists)
}

func TestInitGroupUnfunded(t *testing.T) {
	f := newFixture(t)
	poor := solana.NewWallet().PublicKey()
	require.NoError(t, f.st.Credit(poor, 10))
	g, tr := f.groupAddr(5)
	_, err := f.eng.InitGroup(NewSigners(poor), []solana.PublicKey{poor, g, tr}, &tx.InitGroupInstruction{PrimarySeed: 5})
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)
}

func TestAddMemberOrdering(t *testing.T) {
	f := newFixture(t)
	payer := f.wallet()
	g := f.initGroup(payer, 1, nil, nil)
	e := ids(3)
	x, y, z := e[0], e[1], e[2]

	require.NoError(t, f.add(payer, g, x, types.RoleAdmin))
	require.NoError(t, f.add(payer, g, y, types.RoleMember))
	require.NoError(t, f.add(payer, g, z, types.RoleAdmin))

	assert.Equal(t, []solana.PublicKey{x, z, y}, f.members(g))
	h := f.groupHeader(g)
	assert.Equal(t, uint8(3), h.NumMembers)
	assert.Equal(t, uint8(2), h.AdminCounter)
	assert.Len(t, f.record(g).Data, types.GroupHeaderLen+3*types.EntryLen)
	f.requireDeposit(g)
}

func TestRemoveAdmin(t *testing.T) {
	f := newFixture(t)
	payer := f.wallet()
	g := f.initGroup(payer, 1, nil, nil)
	e := ids(3)
	x, y, z := e[0], e[1], e[2]
	require.NoError(t, f.add(payer, g, x, types.RoleAdmin))
	require.NoError(t, f.add(payer, g, y, types.RoleMember))
	require.NoError(t, f.add(payer, g, z, types.RoleAdmin))
	before := f.record(g).Balance

	require.NoError(t, f.remove(payer, g, x))
	assert.Equal(t, []solana.PublicKey{z, y}, f.members(g))
	h := f.groupHeader(g)
	assert.Equal(t, uint8(2), h.NumMembers)
	assert.Equal(t, uint8(1), h.AdminCounter)
	assert.Len(t, f.record(g).Data, types.GroupHeaderLen+2*types.EntryLen)
	// shrinking keeps the deposit
	assert.Equal(t, before, f.record(g).Balance)
	f.requireDeposit(g)
}

func TestRemoveRegular(t *testing.T) {
	f := newFixture(t)
	payer := f.wallet()
	e := ids(4)
	g := f.initGroup(payer, 1, e[:1], e[1:])

	require.NoError(t, f.remove(payer, g, e[1]))
	assert.Equal(t, []solana.PublicKey{e[0], e[3], e[2]}, f.members(g))
	h := f.groupHeader(g)
	assert.Equal(t, uint8(3), h.NumMembers)
	assert.Equal(t, uint8(1), h.AdminCounter)
}

func TestMemberErrors(t *testing.T) {
	f := newFixture(t)
	payer := f.wallet()
	e := ids(2)
	g := f.initGroup(payer, 1, e[:1], nil)

	assert.ErrorIs(t, f.add(payer, g, e[0], types.RoleMember), types.ErrDuplicateEntry)
	assert.ErrorIs(t, f.add(payer, g, e[0], types.RoleAdmin), types.ErrDuplicateEntry)
	assert.ErrorIs(t, f.remove(payer, g, e[1]), types.ErrNotFound)

	_, err := f.eng.UpdateMembers(NewSigners(), []solana.PublicKey{payer, g},
		&tx.UpdateMembersInstruction{Operation: tx.MemberOpAdd, Member: e[1]})
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = f.eng.UpdateMembers(NewSigners(payer), []solana.PublicKey{payer},
		&tx.UpdateMembersInstruction{Operation: tx.MemberOpAdd, Member: e[1]})
	assert.ErrorIs(t, err, types.ErrInsufficientInputs)

	_, err = f.eng.UpdateMembers(NewSigners(payer), []solana.PublicKey{payer, g},
		&tx.UpdateMembersInstruction{Operation: 9, Member: e[1]})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	foreign := solana.NewWallet().PublicKey()
	require.NoError(t, f.st.CreateRecord(payer, foreign, solana.NewWallet().PublicKey(), types.GroupHeaderLen))
	assert.ErrorIs(t, f.add(payer, foreign, e[1], types.RoleMember), types.ErrInvalidData)
	assert.ErrorIs(t, f.add(payer, solana.NewWallet().PublicKey(), e[1], types.RoleMember), types.ErrNotFound)
}

func TestAddMemberOverflow(t *testing.T) {
	f := newFixture(t)
	payer := f.wallet()
	g := f.initGroup(payer, 1, nil, nil)
	for i := 0; i < 255; i++ {
		var id solana.PublicKey
		id[0], id[1] = byte(i), 0xee
		require.NoError(t, f.add(payer, g, id, types.RoleMember))
	}
	assert.ErrorIs(t, f.add(payer, g, solana.PublicKey{0xff, 0xff}, types.RoleMember), types.ErrOverflow)
	assert.Equal(t, uint8(255), f.groupHeader(g).NumMembers)
}

func TestAdminGate(t *testing.T) {
	f := newFixture(t, func(p *Params) { p.AdminGate = AdminGateAdmin })
	admin := f.wallet()
	outsider := f.wallet()
	e := ids(1)
	g := f.initGroup(admin, 1, []solana.PublicKey{admin}, nil)

	assert.ErrorIs(t, f.add(outsider, g, e[0], types.RoleMember), types.ErrUnauthorized)
	require.NoError(t, f.add(admin, g, e[0], types.RoleMember))

	_, err := f.eng.UpdateGroup(NewSigners(outsider), []solana.PublicKey{outsider, g},
		&tx.UpdateGroupInstruction{UpdateType: tx.GroupUpdateThreshold, Threshold: 2})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestSignerGateAllowsAnySigner(t *testing.T) {
	f := newFixture(t)
	admin := f.wallet()
	outsider := f.wallet()
	g := f.initGroup(admin, 1, []solana.PublicKey{admin}, nil)
	require.NoError(t, f.add(outsider, g, ids(1)[0], types.RoleMember))
}

func TestUpdateGroup(t *testing.T) {
	f := newFixture(t)
	payer := f.wallet()
	g := f.initGroup(payer, 1, nil, nil)
	update := func(ix *tx.UpdateGroupInstruction) (*types.EventUpdateGroup, error) {
		return f.eng.UpdateGroup(NewSigners(payer), []solana.PublicKey{payer, g}, ix)
	}

	ev, err := update(&tx.UpdateGroupInstruction{UpdateType: tx.GroupUpdateThreshold, Threshold: 3, Value: 99})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ev.Value)
	_, err = update(&tx.UpdateGroupInstruction{UpdateType: tx.GroupUpdateSpendingLimit, Value: 5000})
	require.NoError(t, err)
	_, err = update(&tx.UpdateGroupInstruction{UpdateType: tx.GroupUpdateStaleIndex, Value: 12})
	require.NoError(t, err)
	_, err = update(&tx.UpdateGroupInstruction{UpdateType: 4})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	h := f.groupHeader(g)
	assert.Equal(t, uint8(3), h.MinThreshold)
	assert.Equal(t, uint64(5000), h.AdminSpendingLimit)
	assert.Equal(t, uint64(12), h.StaleTransactionIndex)
	assert.Len(t, f.record(g).Data, types.GroupHeaderLen)
}

func TestMemberPartitionInvariant(t *testing.T) {
	f := newFixture(t)
	payer := f.wallet()
	g := f.initGroup(payer, 1, nil, nil)
	pool := ids(24)
	role := map[solana.PublicKey]types.MemberRole{}
	rnd := rand.New(rand.NewSource(7))

	for step := 0; step < 400; step++ {
		id := pool[rnd.Intn(len(pool))]
		if _, ok := role[id]; ok {
			require.NoError(t, f.remove(payer, g, id))
			delete(role, id)
		} else {
			r := types.MemberRole(rnd.Intn(2))
			require.NoError(t, f.add(payer, g, id, r))
			role[id] = r
		}

		h := f.groupHeader(g)
		members := f.members(g)
		require.Len(t, members, len(role))
		seen := map[solana.PublicKey]bool{}
		for i, m := range members {
			require.False(t, seen[m], "duplicate %v", m)
			seen[m] = true
			want := types.RoleMember
			if i < int(h.AdminCounter) {
				want = types.RoleAdmin
			}
			require.Equal(t, want, role[m], "step %d index %d", step, i)
		}
		f.requireDeposit(g)
	}
}
