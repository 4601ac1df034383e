package state

import (
	"fmt"
	"math"

	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
)

// CreateProposal allocates an empty Draft proposal under a group. Accounts:
// creator, proposal, group.
func (e *Engine) CreateProposal(signers SignerVerifier, accounts []solana.PublicKey, ix *tx.CreateProposalInstruction) (event *types.EventCreateProposal, err error) {
	if err = requireAccounts(accounts, 3); err != nil {
		return
	}
	creator, proposalAddr, groupAddr := accounts[0], accounts[1], accounts[2]
	if err = requireSigner(signers, creator); err != nil {
		return
	}
	g, err := e.loadGroup(groupAddr)
	if err != nil {
		return
	}
	derived, bump, err := e.deriver.FindAddress(ProposalSeeds(groupAddr, ix.PrimarySeed))
	if err != nil {
		return
	}
	if !derived.Equals(proposalAddr) {
		return nil, fmt.Errorf("proposal derived %v, supplied %v: %w", derived, proposalAddr, types.ErrAddressMismatch)
	}
	existing, err := e.store.Record(proposalAddr)
	if err != nil {
		return
	}
	if !existing.Empty() {
		return nil, fmt.Errorf("proposal %v: %w", proposalAddr, types.ErrAlreadyExists)
	}
	if g.header.AdminCounter > 0 && !g.isAdmin(creator) {
		return nil, fmt.Errorf("%v is not an admin of %v: %w", creator, groupAddr, types.ErrUnauthorized)
	}

	if err = e.store.CreateRecord(creator, proposalAddr, e.params.ProgramID, types.ProposalHeaderLen); err != nil {
		return
	}
	header := &types.ProposalHeader{
		ProposalId:  uint64(ix.PrimarySeed),
		Expiry:      ix.Expiry,
		CreatedTime: uint64(e.clock.Now().Unix()),
		Status:      types.ProposalStatusDraft,
		Bump:        bump,
	}
	if err = e.store.WriteData(proposalAddr, header.Bytes()); err != nil {
		return
	}

	e.logger.Info("create proposal", "group", groupAddr, "proposal", proposalAddr, "id", header.ProposalId)
	event = &types.EventCreateProposal{
		Group:       groupAddr.String(),
		Proposal:    proposalAddr.String(),
		Creator:     creator.String(),
		ProposalId:  header.ProposalId,
		Expiry:      header.Expiry,
		CreatedTime: header.CreatedTime,
	}
	return
}

// Vote casts or changes a member's vote. Accounts: voter, group, proposal.
// Voters stay packed as yes voters followed by no voters.
func (e *Engine) Vote(signers SignerVerifier, accounts []solana.PublicKey, ix *tx.VoteInstruction) (event *types.EventVote, err error) {
	if err = requireAccounts(accounts, 3); err != nil {
		return
	}
	voter, groupAddr, proposalAddr := accounts[0], accounts[1], accounts[2]
	if err = requireSigner(signers, voter); err != nil {
		return
	}
	if ix.Choice != types.VoteYes && ix.Choice != types.VoteNo {
		return nil, fmt.Errorf("vote choice %d: %w", ix.Choice, types.ErrInvalidData)
	}
	g, err := e.loadGroup(groupAddr)
	if err != nil {
		return
	}
	if err = e.deriver.VerifyAddress(GroupSeeds(g.header.PrimarySeed), ix.GroupBump, groupAddr); err != nil {
		return
	}
	p, err := e.loadProposal(proposalAddr)
	if err != nil {
		return
	}
	if err = e.deriver.VerifyAddress(ProposalSeeds(groupAddr, uint16(p.header.ProposalId)), ix.ProposalBump, proposalAddr); err != nil {
		return
	}
	if !g.members.Contains(voter) {
		return nil, fmt.Errorf("%v is not a member of %v: %w", voter, groupAddr, types.ErrUnauthorized)
	}

	h := p.header
	data := p.rec.Data
	yes := int(h.YesVotes)
	i := p.voters.Find(voter, 0, p.voters.Len())
	switch {
	case i < 0:
		if (ix.Choice == types.VoteYes && h.YesVotes == math.MaxUint16) || (ix.Choice == types.VoteNo && h.NoVotes == math.MaxUint16) {
			return nil, fmt.Errorf("proposal %v voter count: %w", proposalAddr, types.ErrOverflow)
		}
		data, err = e.grow(voter, proposalAddr, len(data))
		if err != nil {
			return
		}
		var arr *DenseArray
		arr, err = NewGrownArray(data, types.ProposalHeaderLen, h.Voters())
		if err != nil {
			return
		}
		last := arr.Len()
		if err = arr.Insert(last, voter); err != nil {
			return
		}
		if ix.Choice == types.VoteYes {
			if yes, err = arr.Reclassify(last, yes); err != nil {
				return
			}
		} else {
			h.NoVotes++
		}
	case (i < yes) == (ix.Choice == types.VoteYes):
		if e.params.VotePolicy != VotePolicyIdempotent {
			return nil, fmt.Errorf("%v already voted %d on %v: %w", voter, ix.Choice, proposalAddr, types.ErrDuplicateEntry)
		}
	default:
		if yes, err = p.voters.Reclassify(i, yes); err != nil {
			return
		}
		if ix.Choice == types.VoteYes {
			h.NoVotes--
		} else {
			h.NoVotes++
		}
	}
	h.YesVotes = uint16(yes)
	if err = h.Encode(data); err != nil {
		return
	}
	if err = e.store.WriteData(proposalAddr, data); err != nil {
		return
	}

	e.logger.Debug("vote", "proposal", proposalAddr, "voter", voter, "choice", ix.Choice, "yes", h.YesVotes, "no", h.NoVotes)
	event = &types.EventVote{
		Group:    groupAddr.String(),
		Proposal: proposalAddr.String(),
		Voter:    voter.String(),
		Choice:   ix.Choice,
		YesVotes: h.YesVotes,
		NoVotes:  h.NoVotes,
	}
	return
}
