package state

import (
	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
)

type MemberView struct {
	Address solana.PublicKey `json:"address"`
	Role    types.MemberRole `json:"role"`
}

// GroupView is a decoded group record, admins first.
type GroupView struct {
	Address solana.PublicKey   `json:"address"`
	Balance uint64             `json:"balance"`
	Header  *types.GroupHeader `json:"header"`
	Members []MemberView       `json:"members"`
}

type ProposalView struct {
	Address solana.PublicKey      `json:"address"`
	Balance uint64                `json:"balance"`
	Header  *types.ProposalHeader `json:"header"`
	Yes     []solana.PublicKey    `json:"yes"`
	No      []solana.PublicKey    `json:"no"`
}

func (e *Engine) Group(addr solana.PublicKey) (v *GroupView, err error) {
	g, err := e.loadGroup(addr)
	if err != nil {
		return nil, err
	}
	v = &GroupView{
		Address: addr,
		Balance: g.rec.Balance,
		Header:  g.header,
		Members: make([]MemberView, 0, g.members.Len()),
	}
	for i, id := range g.members.Entries() {
		role := types.RoleMember
		if i < int(g.header.AdminCounter) {
			role = types.RoleAdmin
		}
		v.Members = append(v.Members, MemberView{Address: id, Role: role})
	}
	return
}

func (e *Engine) Proposal(addr solana.PublicKey) (v *ProposalView, err error) {
	p, err := e.loadProposal(addr)
	if err != nil {
		return nil, err
	}
	voters := p.voters.Entries()
	yes := int(p.header.YesVotes)
	v = &ProposalView{
		Address: addr,
		Balance: p.rec.Balance,
		Header:  p.header,
		Yes:     voters[:yes],
		No:      voters[yes:],
	}
	return
}
