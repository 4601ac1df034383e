package state

import (
	"fmt"

	"github.com/calehh/msig-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gagliardetto/solana-go"
)

type VotePolicy string

const (
	// VotePolicyRejectDuplicate fails a vote that repeats the voter's current choice.
	VotePolicyRejectDuplicate VotePolicy = "reject-duplicate"
	// VotePolicyIdempotent accepts a repeated choice without changing anything.
	VotePolicyIdempotent VotePolicy = "idempotent-noop"
)

func ParseVotePolicy(s string) (VotePolicy, error) {
	switch VotePolicy(s) {
	case "":
		return VotePolicyRejectDuplicate, nil
	case VotePolicyRejectDuplicate, VotePolicyIdempotent:
		return VotePolicy(s), nil
	}
	return "", fmt.Errorf("unknown vote policy %q", s)
}

type AdminGate string

const (
	// AdminGateSigner only requires the payer to have signed.
	AdminGateSigner AdminGate = "signer"
	// AdminGateAdmin additionally requires the payer to be a group admin when the group has any.
	AdminGateAdmin AdminGate = "admin"
)

func ParseAdminGate(s string) (AdminGate, error) {
	switch AdminGate(s) {
	case "":
		return AdminGateSigner, nil
	case AdminGateSigner, AdminGateAdmin:
		return AdminGate(s), nil
	}
	return "", fmt.Errorf("unknown admin gate %q", s)
}

type Params struct {
	ProgramID  solana.PublicKey
	VotePolicy VotePolicy
	AdminGate  AdminGate
}

func DefaultParams(programID solana.PublicKey) Params {
	return Params{
		ProgramID:  programID,
		VotePolicy: VotePolicyRejectDuplicate,
		AdminGate:  AdminGateSigner,
	}
}

// Engine applies group, proposal and transaction operations to records held by
// a RecordAllocator. Every operation either returns an error or leaves all
// touched records consistent; the caller discards the store on error.
type Engine struct {
	logger  cmtlog.Logger
	params  Params
	deriver AddressDeriver
	store   RecordAllocator
	clock   Clock
}

func NewEngine(logger cmtlog.Logger, params Params, store RecordAllocator, clock Clock) (e *Engine) {
	e = &Engine{
		logger:  logger.With("module", "engine"),
		params:  params,
		deriver: NewProgramDeriver(params.ProgramID),
		store:   store,
		clock:   clock,
	}
	return
}

func (e *Engine) Params() Params {
	return e.params
}

func requireAccounts(accounts []solana.PublicKey, n int) error {
	if len(accounts) < n {
		return fmt.Errorf("need %d accounts, got %d: %w", n, len(accounts), types.ErrInsufficientInputs)
	}
	return nil
}

func requireSigner(signers SignerVerifier, id solana.PublicKey) error {
	if signers == nil || !signers.IsSigner(id) {
		return fmt.Errorf("%v did not sign: %w", id, types.ErrUnauthorized)
	}
	return nil
}

// programRecord loads a record this program owns.
func (e *Engine) programRecord(addr solana.PublicKey) (*Record, error) {
	rec, err := e.store.Record(addr)
	if err != nil {
		return nil, err
	}
	if rec.Empty() {
		return nil, fmt.Errorf("record %v: %w", addr, types.ErrNotFound)
	}
	if !rec.OwnedBy(e.params.ProgramID) {
		return nil, fmt.Errorf("record %v owned by %v: %w", addr, rec.Owner, types.ErrInvalidData)
	}
	return rec, nil
}

// group is a loaded group record: header plus a view over its members.
type group struct {
	addr    solana.PublicKey
	rec     *Record
	header  *types.GroupHeader
	members *DenseArray
}

func (e *Engine) loadGroup(addr solana.PublicKey) (g *group, err error) {
	rec, err := e.programRecord(addr)
	if err != nil {
		return nil, err
	}
	header, err := types.DecodeGroupHeader(rec.Data)
	if err != nil {
		return nil, err
	}
	if header.AdminCounter > header.NumMembers {
		return nil, fmt.Errorf("group %v has %d admins of %d members: %w",
			addr, header.AdminCounter, header.NumMembers, types.ErrInvalidData)
	}
	members, err := NewDenseArray(rec.Data, types.GroupHeaderLen, int(header.NumMembers))
	if err != nil {
		return nil, err
	}
	g = &group{addr: addr, rec: rec, header: header, members: members}
	return
}

func (g *group) isAdmin(id solana.PublicKey) bool {
	return g.members.Find(id, 0, int(g.header.AdminCounter)) >= 0
}

// proposal is a loaded proposal record.
type proposal struct {
	addr   solana.PublicKey
	rec    *Record
	header *types.ProposalHeader
	voters *DenseArray
}

func (e *Engine) loadProposal(addr solana.PublicKey) (p *proposal, err error) {
	rec, err := e.programRecord(addr)
	if err != nil {
		return nil, err
	}
	header, err := types.DecodeProposalHeader(rec.Data)
	if err != nil {
		return nil, err
	}
	voters, err := NewDenseArray(rec.Data, types.ProposalHeaderLen, header.Voters())
	if err != nil {
		return nil, err
	}
	p = &proposal{addr: addr, rec: rec, header: header, voters: voters}
	return
}

// grow resizes addr by one entry, funded by payer, and returns the reloaded data.
func (e *Engine) grow(payer, addr solana.PublicKey, size int) ([]byte, error) {
	err := e.store.ResizeRecord(payer, addr, size+types.EntryLen)
	if err != nil {
		return nil, err
	}
	rec, err := e.store.Record(addr)
	if err != nil {
		return nil, err
	}
	if len(rec.Data) != size+types.EntryLen {
		return nil, fmt.Errorf("record %v resized to %d: %w", addr, len(rec.Data), types.ErrInvalidData)
	}
	return rec.Data, nil
}

func (e *Engine) gate(signers SignerVerifier, payer solana.PublicKey, g *group) error {
	if err := requireSigner(signers, payer); err != nil {
		return err
	}
	if e.params.AdminGate == AdminGateAdmin && g.header.AdminCounter > 0 && !g.isAdmin(payer) {
		return fmt.Errorf("%v is not an admin of %v: %w", payer, g.addr, types.ErrUnauthorized)
	}
	return nil
}
