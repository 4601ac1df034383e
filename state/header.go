package state

import (
	"bytes"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// StateHeader is persisted under KeyState as a protobuf message:
//
//	string chain_id = 1; uint64 height = 2; int64 block_time = 3;
//	bytes root_hash = 4; bytes hash = 5;
type StateHeader struct {
	ChainId   string
	Height    uint64
	BlockTime int64
	RootHash  []byte
	Hash      []byte
}

func (h *StateHeader) GetHash() []byte {
	if h == nil {
		return nil
	}
	return h.Hash
}

func (h *StateHeader) Clone() *StateHeader {
	return &StateHeader{
		ChainId:   h.ChainId,
		Height:    h.Height,
		BlockTime: h.BlockTime,
		RootHash:  bytes.Clone(h.RootHash),
		Hash:      bytes.Clone(h.Hash),
	}
}

func (h *StateHeader) Marshal() []byte {
	var b []byte
	if h.ChainId != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, h.ChainId)
	}
	if h.Height != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, h.Height)
	}
	if h.BlockTime != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(h.BlockTime))
	}
	if len(h.RootHash) > 0 {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, h.RootHash)
	}
	if len(h.Hash) > 0 {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		b = protowire.AppendBytes(b, h.Hash)
	}
	return b
}

func (h *StateHeader) Unmarshal(b []byte) error {
	*h = StateHeader{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("state header tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			h.ChainId, n = v, m
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			h.Height, n = v, m
		case num == 3 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			h.BlockTime, n = int64(v), m
		case num == 4 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			h.RootHash, n = bytes.Clone(v), m
		case num == 5 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			h.Hash, n = bytes.Clone(v), m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
		}
		b = b[n:]
	}
	return nil
}
