package state

import (
	"bytes"
	"encoding/json"

	"github.com/gagliardetto/solana-go"
)

// Record is one addressable storage cell. Wallets carry a zero owner and no data.
type Record struct {
	Owner   solana.PublicKey
	Balance uint64
	Data    []byte
}

type recordSt struct {
	Owner   solana.PublicKey `json:"owner"`
	Balance uint64           `json:"balance"`
	Size    int              `json:"size"`
	Data    []byte           `json:"data"`
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordSt{
		Owner:   r.Owner,
		Balance: r.Balance,
		Size:    len(r.Data),
		Data:    r.Data,
	})
}

func (r *Record) UnmarshalJSON(dat []byte) (err error) {
	var o recordSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	r.Owner = o.Owner
	r.Balance = o.Balance
	r.Data = o.Data
	return
}

func (r *Record) Clone() *Record {
	n := &Record{
		Owner:   r.Owner,
		Balance: r.Balance,
	}
	if r.Data != nil {
		n.Data = bytes.Clone(r.Data)
	}
	return n
}

// Empty reports whether the record was never allocated by a program.
func (r *Record) Empty() bool {
	return r == nil || (r.Owner.IsZero() && len(r.Data) == 0)
}

func (r *Record) OwnedBy(owner solana.PublicKey) bool {
	return r != nil && r.Owner.Equals(owner)
}
