package types

import (
	"fmt"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventInitGroupType         = "init_group"
	EventAddMemberType         = "add_member"
	EventRemoveMemberType      = "remove_member"
	EventUpdateGroupType       = "update_group"
	EventCreateProposalType    = "create_proposal"
	EventVoteType              = "vote"
	EventCreateTransactionType = "create_transaction"
)

type EventInitGroup struct {
	Group        string   `json:"group"`
	Creator      string   `json:"creator"`
	Treasury     string   `json:"treasury"`
	PrimarySeed  uint16   `json:"primarySeed"`
	MinThreshold uint8    `json:"minThreshold"`
	MaxExpiry    uint64   `json:"maxExpiry"`
	AdminCounter uint8    `json:"adminCounter"`
	Members      []string `json:"members"`
}

func EncodeEventInitGroup(event *EventInitGroup) abci.Event {
	return abci.Event{
		Type: EventInitGroupType,
		Attributes: []abci.EventAttribute{
			{Key: "group", Value: event.Group, Index: true},
			{Key: "creator", Value: event.Creator, Index: true},
			{Key: "treasury", Value: event.Treasury, Index: false},
			{Key: "primarySeed", Value: fmt.Sprintf("%v", event.PrimarySeed), Index: false},
			{Key: "minThreshold", Value: fmt.Sprintf("%v", event.MinThreshold), Index: false},
			{Key: "maxExpiry", Value: fmt.Sprintf("%v", event.MaxExpiry), Index: false},
			{Key: "adminCounter", Value: fmt.Sprintf("%v", event.AdminCounter), Index: false},
			{Key: "members", Value: strings.Join(event.Members, ","), Index: false},
		},
	}
}

func DecodeEventInitGroup(originEvent abci.Event) *EventInitGroup {
	event := &EventInitGroup{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "group":
			event.Group = v.Value
		case "creator":
			event.Creator = v.Value
		case "treasury":
			event.Treasury = v.Value
		case "primarySeed":
			seed, err := strconv.ParseUint(v.Value, 10, 16)
			if err != nil {
				return nil
			}
			event.PrimarySeed = uint16(seed)
		case "minThreshold":
			threshold, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.MinThreshold = uint8(threshold)
		case "maxExpiry":
			expiry, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.MaxExpiry = expiry
		case "adminCounter":
			admins, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.AdminCounter = uint8(admins)
		case "members":
			if v.Value != "" {
				event.Members = strings.Split(v.Value, ",")
			}
		}
	}
	return event
}

// EventMember is emitted for both add_member and remove_member. Counters are the
// values after the change.
type EventMember struct {
	Group        string     `json:"group"`
	Member       string     `json:"member"`
	Role         MemberRole `json:"role"`
	NumMembers   uint8      `json:"numMembers"`
	AdminCounter uint8      `json:"adminCounter"`
}

func EncodeEventAddMember(event *EventMember) abci.Event {
	return encodeEventMember(EventAddMemberType, event)
}

func EncodeEventRemoveMember(event *EventMember) abci.Event {
	return encodeEventMember(EventRemoveMemberType, event)
}

func encodeEventMember(typ string, event *EventMember) abci.Event {
	return abci.Event{
		Type: typ,
		Attributes: []abci.EventAttribute{
			{Key: "group", Value: event.Group, Index: true},
			{Key: "member", Value: event.Member, Index: true},
			{Key: "role", Value: fmt.Sprintf("%v", uint8(event.Role)), Index: false},
			{Key: "numMembers", Value: fmt.Sprintf("%v", event.NumMembers), Index: false},
			{Key: "adminCounter", Value: fmt.Sprintf("%v", event.AdminCounter), Index: false},
		},
	}
}

func DecodeEventMember(originEvent abci.Event) *EventMember {
	event := &EventMember{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "group":
			event.Group = v.Value
		case "member":
			event.Member = v.Value
		case "role":
			role, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.Role = MemberRole(role)
		case "numMembers":
			n, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.NumMembers = uint8(n)
		case "adminCounter":
			n, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.AdminCounter = uint8(n)
		}
	}
	return event
}

type EventUpdateGroup struct {
	Group      string `json:"group"`
	UpdateType uint8  `json:"updateType"`
	Value      uint64 `json:"value"`
}

func EncodeEventUpdateGroup(event *EventUpdateGroup) abci.Event {
	return abci.Event{
		Type: EventUpdateGroupType,
		Attributes: []abci.EventAttribute{
			{Key: "group", Value: event.Group, Index: true},
			{Key: "updateType", Value: fmt.Sprintf("%v", event.UpdateType), Index: false},
			{Key: "value", Value: fmt.Sprintf("%v", event.Value), Index: false},
		},
	}
}

func DecodeEventUpdateGroup(originEvent abci.Event) *EventUpdateGroup {
	event := &EventUpdateGroup{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "group":
			event.Group = v.Value
		case "updateType":
			typ, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.UpdateType = uint8(typ)
		case "value":
			value, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Value = value
		}
	}
	return event
}

type EventCreateProposal struct {
	Group       string `json:"group"`
	Proposal    string `json:"proposal"`
	Creator     string `json:"creator"`
	ProposalId  uint64 `json:"proposalId"`
	Expiry      uint64 `json:"expiry"`
	CreatedTime uint64 `json:"createdTime"`
}

func EncodeEventCreateProposal(event *EventCreateProposal) abci.Event {
	return abci.Event{
		Type: EventCreateProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "group", Value: event.Group, Index: true},
			{Key: "proposal", Value: event.Proposal, Index: true},
			{Key: "creator", Value: event.Creator, Index: false},
			{Key: "proposalId", Value: fmt.Sprintf("%v", event.ProposalId), Index: false},
			{Key: "expiry", Value: fmt.Sprintf("%v", event.Expiry), Index: false},
			{Key: "createdTime", Value: fmt.Sprintf("%v", event.CreatedTime), Index: false},
		},
	}
}

func DecodeEventCreateProposal(originEvent abci.Event) *EventCreateProposal {
	event := &EventCreateProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "group":
			event.Group = v.Value
		case "proposal":
			event.Proposal = v.Value
		case "creator":
			event.Creator = v.Value
		case "proposalId":
			id, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalId = id
		case "expiry":
			expiry, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Expiry = expiry
		case "createdTime":
			created, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.CreatedTime = created
		}
	}
	return event
}

type EventVote struct {
	Group    string     `json:"group"`
	Proposal string     `json:"proposal"`
	Voter    string     `json:"voter"`
	Choice   VoteChoice `json:"choice"`
	YesVotes uint16     `json:"yesVotes"`
	NoVotes  uint16     `json:"noVotes"`
}

func EncodeEventVote(event *EventVote) abci.Event {
	return abci.Event{
		Type: EventVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "group", Value: event.Group, Index: false},
			{Key: "proposal", Value: event.Proposal, Index: true},
			{Key: "voter", Value: event.Voter, Index: true},
			{Key: "choice", Value: fmt.Sprintf("%v", uint8(event.Choice)), Index: false},
			{Key: "yes", Value: fmt.Sprintf("%v", event.YesVotes), Index: false},
			{Key: "no", Value: fmt.Sprintf("%v", event.NoVotes), Index: false},
		},
	}
}

func DecodeEventVote(originEvent abci.Event) *EventVote {
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "group":
			event.Group = v.Value
		case "proposal":
			event.Proposal = v.Value
		case "voter":
			event.Voter = v.Value
		case "choice":
			choice, err := strconv.ParseUint(v.Value, 10, 8)
			if err != nil {
				return nil
			}
			event.Choice = VoteChoice(choice)
		case "yes":
			yes, err := strconv.ParseUint(v.Value, 10, 16)
			if err != nil {
				return nil
			}
			event.YesVotes = uint16(yes)
		case "no":
			no, err := strconv.ParseUint(v.Value, 10, 16)
			if err != nil {
				return nil
			}
			event.NoVotes = uint16(no)
		}
	}
	return event
}

type EventCreateTransaction struct {
	Transaction      string `json:"transaction"`
	Payer            string `json:"payer"`
	TransactionIndex uint64 `json:"transactionIndex"`
	BufferSize       uint16 `json:"bufferSize"`
}

func EncodeEventCreateTransaction(event *EventCreateTransaction) abci.Event {
	return abci.Event{
		Type: EventCreateTransactionType,
		Attributes: []abci.EventAttribute{
			{Key: "transaction", Value: event.Transaction, Index: true},
			{Key: "payer", Value: event.Payer, Index: true},
			{Key: "transactionIndex", Value: fmt.Sprintf("%v", event.TransactionIndex), Index: false},
			{Key: "bufferSize", Value: fmt.Sprintf("%v", event.BufferSize), Index: false},
		},
	}
}

func DecodeEventCreateTransaction(originEvent abci.Event) *EventCreateTransaction {
	event := &EventCreateTransaction{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "transaction":
			event.Transaction = v.Value
		case "payer":
			event.Payer = v.Value
		case "transactionIndex":
			idx, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.TransactionIndex = idx
		case "bufferSize":
			size, err := strconv.ParseUint(v.Value, 10, 16)
			if err != nil {
				return nil
			}
			event.BufferSize = uint16(size)
		}
	}
	return event
}
