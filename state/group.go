package state

import (
	"fmt"
	"math"

	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
)

// InitGroup creates a group and its treasury. Accounts: creator, group,
// treasury, then the initial members with the first NumAdmins as admins.
func (e *Engine) InitGroup(signers SignerVerifier, accounts []solana.PublicKey, ix *tx.InitGroupInstruction) (event *types.EventInitGroup, err error) {
	if err = requireAccounts(accounts, 3); err != nil {
		return
	}
	creator, groupAddr, treasuryAddr := accounts[0], accounts[1], accounts[2]
	if err = requireSigner(signers, creator); err != nil {
		return
	}
	if ix.NumAdmins > ix.NumMembers {
		return nil, fmt.Errorf("%d admins of %d members: %w", ix.NumAdmins, ix.NumMembers, types.ErrInvalidData)
	}
	if err = requireAccounts(accounts, 3+int(ix.NumMembers)); err != nil {
		return
	}
	members := accounts[3 : 3+int(ix.NumMembers)]

	existing, err := e.store.Record(groupAddr)
	if err != nil {
		return
	}
	if !existing.Empty() {
		return nil, fmt.Errorf("group %v: %w", groupAddr, types.ErrAlreadyExists)
	}
	derived, bump, err := e.deriver.FindAddress(GroupSeeds(ix.PrimarySeed))
	if err != nil {
		return
	}
	if !derived.Equals(groupAddr) {
		return nil, fmt.Errorf("group derived %v, supplied %v: %w", derived, groupAddr, types.ErrAddressMismatch)
	}
	treasury, treasuryBump, err := e.deriver.FindAddress(TreasurySeeds(groupAddr))
	if err != nil {
		return
	}
	if !treasury.Equals(treasuryAddr) {
		return nil, fmt.Errorf("treasury derived %v, supplied %v: %w", treasury, treasuryAddr, types.ErrAddressMismatch)
	}
	existing, err = e.store.Record(treasuryAddr)
	if err != nil {
		return
	}
	if !existing.Empty() {
		return nil, fmt.Errorf("treasury %v: %w", treasuryAddr, types.ErrAlreadyExists)
	}

	size := types.GroupHeaderLen + len(members)*types.EntryLen
	data := make([]byte, size)
	arr, err := NewDenseArray(data, types.GroupHeaderLen, len(members))
	if err != nil {
		return
	}
	for i, m := range members {
		if arr.Find(m, 0, i) >= 0 {
			return nil, fmt.Errorf("member %v: %w", m, types.ErrDuplicateEntry)
		}
		arr.Set(i, m)
	}

	err = e.store.CreateRecord(creator, groupAddr, e.params.ProgramID, size)
	if err != nil {
		return
	}
	err = e.store.CreateRecord(creator, treasuryAddr, e.params.ProgramID, 0)
	if err != nil {
		return
	}

	header := &types.GroupHeader{
		Seed:         uint64(e.clock.Now().Unix()),
		PrimarySeed:  ix.PrimarySeed,
		MaxExpiry:    ix.MaxExpiry,
		MinThreshold: ix.MinThreshold,
		Treasury:     treasuryAddr,
		TreasuryBump: treasuryBump,
		Bump:         bump,
		NumMembers:   uint8(len(members)),
		AdminCounter: ix.NumAdmins,
	}
	if err = header.Encode(data); err != nil {
		return
	}
	if err = e.store.WriteData(groupAddr, data); err != nil {
		return
	}

	e.logger.Info("init group", "group", groupAddr, "members", header.NumMembers, "admins", header.AdminCounter)
	event = &types.EventInitGroup{
		Group:        groupAddr.String(),
		Creator:      creator.String(),
		Treasury:     treasuryAddr.String(),
		PrimarySeed:  header.PrimarySeed,
		MinThreshold: header.MinThreshold,
		MaxExpiry:    header.MaxExpiry,
		AdminCounter: header.AdminCounter,
		Members:      make([]string, len(members)),
	}
	for i, m := range members {
		event.Members[i] = m.String()
	}
	return
}

// UpdateMembers dispatches an add or remove. Accounts: payer, group.
func (e *Engine) UpdateMembers(signers SignerVerifier, accounts []solana.PublicKey, ix *tx.UpdateMembersInstruction) (event *types.EventMember, err error) {
	if err = requireAccounts(accounts, 2); err != nil {
		return
	}
	switch ix.Operation {
	case tx.MemberOpAdd:
		return e.AddMember(signers, accounts[0], accounts[1], ix.Member, ix.Role)
	case tx.MemberOpRemove:
		return e.RemoveMember(signers, accounts[0], accounts[1], ix.Member)
	}
	return nil, fmt.Errorf("member operation %d: %w", ix.Operation, types.ErrInvalidData)
}

// AddMember inserts an admin at the end of the admin segment or a member at
// the end of the array, growing the group by one entry funded by payer.
func (e *Engine) AddMember(signers SignerVerifier, payer, groupAddr, id solana.PublicKey, role types.MemberRole) (event *types.EventMember, err error) {
	g, err := e.loadGroup(groupAddr)
	if err != nil {
		return
	}
	if err = e.gate(signers, payer, g); err != nil {
		return
	}
	if g.members.Contains(id) {
		return nil, fmt.Errorf("member %v: %w", id, types.ErrDuplicateEntry)
	}
	h := g.header
	if h.NumMembers == math.MaxUint8 {
		return nil, fmt.Errorf("group %v member count: %w", groupAddr, types.ErrOverflow)
	}
	idx := int(h.NumMembers)
	if role == types.RoleAdmin {
		if h.AdminCounter == math.MaxUint8 {
			return nil, fmt.Errorf("group %v admin count: %w", groupAddr, types.ErrOverflow)
		}
		idx = int(h.AdminCounter)
	}

	data, err := e.grow(payer, groupAddr, len(g.rec.Data))
	if err != nil {
		return
	}
	arr, err := NewGrownArray(data, types.GroupHeaderLen, int(h.NumMembers))
	if err != nil {
		return
	}
	if err = arr.Insert(idx, id); err != nil {
		return
	}
	h.NumMembers++
	if role == types.RoleAdmin {
		h.AdminCounter++
	}
	if err = h.Encode(data); err != nil {
		return
	}
	if err = e.store.WriteData(groupAddr, data); err != nil {
		return
	}

	e.logger.Debug("add member", "group", groupAddr, "member", id, "role", role, "index", idx)
	event = &types.EventMember{
		Group:        groupAddr.String(),
		Member:       id.String(),
		Role:         role,
		NumMembers:   h.NumMembers,
		AdminCounter: h.AdminCounter,
	}
	return
}

// RemoveMember swap-removes id from its segment and shrinks the group by one
// entry. The freed deposit stays with the group.
func (e *Engine) RemoveMember(signers SignerVerifier, payer, groupAddr, id solana.PublicKey) (event *types.EventMember, err error) {
	g, err := e.loadGroup(groupAddr)
	if err != nil {
		return
	}
	if err = e.gate(signers, payer, g); err != nil {
		return
	}
	h := g.header
	i := g.members.Find(id, 0, int(h.NumMembers))
	if i < 0 {
		return nil, fmt.Errorf("member %v: %w", id, types.ErrNotFound)
	}
	if h.NumMembers == 0 {
		return nil, fmt.Errorf("group %v member count: %w", groupAddr, types.ErrOverflow)
	}
	role := types.RoleMember
	if i < int(h.AdminCounter) {
		role = types.RoleAdmin
		if err = g.members.RemoveLead(i, int(h.AdminCounter)); err != nil {
			return
		}
		h.AdminCounter--
	} else if err = g.members.RemoveTrail(i); err != nil {
		return
	}
	h.NumMembers--
	if err = h.Encode(g.rec.Data); err != nil {
		return
	}
	if err = e.store.WriteData(groupAddr, g.rec.Data); err != nil {
		return
	}
	if err = e.store.ResizeRecord(payer, groupAddr, len(g.members.Bytes())); err != nil {
		return
	}

	e.logger.Debug("remove member", "group", groupAddr, "member", id, "role", role)
	event = &types.EventMember{
		Group:        groupAddr.String(),
		Member:       id.String(),
		Role:         role,
		NumMembers:   h.NumMembers,
		AdminCounter: h.AdminCounter,
	}
	return
}

// UpdateGroup writes one scalar config field. Accounts: payer, group.
func (e *Engine) UpdateGroup(signers SignerVerifier, accounts []solana.PublicKey, ix *tx.UpdateGroupInstruction) (event *types.EventUpdateGroup, err error) {
	if err = requireAccounts(accounts, 2); err != nil {
		return
	}
	payer, groupAddr := accounts[0], accounts[1]
	g, err := e.loadGroup(groupAddr)
	if err != nil {
		return
	}
	if err = e.gate(signers, payer, g); err != nil {
		return
	}
	value := ix.Value
	switch ix.UpdateType {
	case tx.GroupUpdateThreshold:
		g.header.MinThreshold = ix.Threshold
		value = uint64(ix.Threshold)
	case tx.GroupUpdateSpendingLimit:
		g.header.AdminSpendingLimit = ix.Value
	case tx.GroupUpdateStaleIndex:
		g.header.StaleTransactionIndex = ix.Value
	default:
		return nil, fmt.Errorf("group update type %d: %w", ix.UpdateType, types.ErrInvalidData)
	}
	if err = g.header.Encode(g.rec.Data); err != nil {
		return
	}
	if err = e.store.WriteData(groupAddr, g.rec.Data); err != nil {
		return
	}
	event = &types.EventUpdateGroup{
		Group:      groupAddr.String(),
		UpdateType: ix.UpdateType,
		Value:      value,
	}
	return
}
