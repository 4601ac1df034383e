package state

import (
	"bytes"
	"fmt"

	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
)

// DenseArray is a view over the fixed-width entries that follow a header in a
// record's data. It never owns the bytes; mutations land in the backing slice.
type DenseArray struct {
	data   []byte
	header int
	n      int
}

func NewDenseArray(data []byte, header, n int) (*DenseArray, error) {
	if n < 0 || len(data) != header+n*types.EntryLen {
		return nil, fmt.Errorf("record is %d bytes, want %d+%d*%d: %w",
			len(data), header, n, types.EntryLen, types.ErrInvalidData)
	}
	return &DenseArray{data: data, header: header, n: n}, nil
}

// NewGrownArray views n entries in data that was just grown by one slot, ready for Insert.
func NewGrownArray(data []byte, header, n int) (*DenseArray, error) {
	if n < 0 || len(data) != header+(n+1)*types.EntryLen {
		return nil, fmt.Errorf("grown record is %d bytes, want %d+%d*%d: %w",
			len(data), header, n+1, types.EntryLen, types.ErrInvalidData)
	}
	return &DenseArray{data: data, header: header, n: n}, nil
}

func (a *DenseArray) Len() int {
	return a.n
}

func (a *DenseArray) slot(i int) []byte {
	off := a.header + i*types.EntryLen
	return a.data[off : off+types.EntryLen]
}

func (a *DenseArray) Get(i int) solana.PublicKey {
	return solana.PublicKeyFromBytes(a.slot(i))
}

func (a *DenseArray) Set(i int, id solana.PublicKey) {
	copy(a.slot(i), id[:])
}

func (a *DenseArray) Swap(i, j int) {
	if i == j {
		return
	}
	var tmp [types.EntryLen]byte
	copy(tmp[:], a.slot(i))
	copy(a.slot(i), a.slot(j))
	copy(a.slot(j), tmp[:])
}

// Find returns the index of id in [from, to), or -1.
func (a *DenseArray) Find(id solana.PublicKey, from, to int) int {
	if from < 0 {
		from = 0
	}
	if to > a.n {
		to = a.n
	}
	for i := from; i < to; i++ {
		if bytes.Equal(a.slot(i), id[:]) {
			return i
		}
	}
	return -1
}

func (a *DenseArray) Contains(id solana.PublicKey) bool {
	return a.Find(id, 0, a.n) >= 0
}

func (a *DenseArray) Entries() []solana.PublicKey {
	out := make([]solana.PublicKey, a.n)
	for i := range out {
		out[i] = a.Get(i)
	}
	return out
}

// Insert places id at idx in an array whose backing data has already been grown
// by one slot, shifting [idx, n) right.
func (a *DenseArray) Insert(idx int, id solana.PublicKey) error {
	if idx < 0 || idx > a.n {
		return fmt.Errorf("insert at %d of %d: %w", idx, a.n, types.ErrInvalidData)
	}
	if len(a.data) != a.header+(a.n+1)*types.EntryLen {
		return fmt.Errorf("insert into unsized record: %w", types.ErrInvalidData)
	}
	start := a.header + idx*types.EntryLen
	end := a.header + a.n*types.EntryLen
	copy(a.data[start+types.EntryLen:end+types.EntryLen], a.data[start:end])
	a.n++
	a.Set(idx, id)
	return nil
}

// RemoveLead deletes i from the leading partition [0, lead). The entry swaps
// with the last lead entry, the trailing partition shifts left into the gap and
// the final slot is zeroed. The caller shrinks the record by one entry.
func (a *DenseArray) RemoveLead(i, lead int) error {
	if lead > a.n || i < 0 || i >= lead {
		return fmt.Errorf("remove %d from lead %d of %d: %w", i, lead, a.n, types.ErrInvalidData)
	}
	last := lead - 1
	a.Swap(i, last)
	start := a.header + last*types.EntryLen
	end := a.header + a.n*types.EntryLen
	copy(a.data[start:end-types.EntryLen], a.data[start+types.EntryLen:end])
	a.zero(a.n - 1)
	a.n--
	return nil
}

// RemoveTrail deletes i by swapping it with the last entry of the array.
func (a *DenseArray) RemoveTrail(i int) error {
	if i < 0 || i >= a.n {
		return fmt.Errorf("remove %d of %d: %w", i, a.n, types.ErrInvalidData)
	}
	a.Swap(i, a.n-1)
	a.zero(a.n - 1)
	a.n--
	return nil
}

func (a *DenseArray) zero(i int) {
	clear(a.slot(i))
}

// Reclassify moves entry i across the boundary between [0, lead) and [lead, n)
// with one swap and returns the new boundary.
func (a *DenseArray) Reclassify(i, lead int) (int, error) {
	if lead < 0 || lead > a.n || i < 0 || i >= a.n {
		return lead, fmt.Errorf("reclassify %d at boundary %d of %d: %w", i, lead, a.n, types.ErrInvalidData)
	}
	if i < lead {
		a.Swap(i, lead-1)
		return lead - 1, nil
	}
	a.Swap(i, lead)
	return lead + 1, nil
}

// Bytes is the backing data trimmed to the current logical length.
func (a *DenseArray) Bytes() []byte {
	return a.data[:a.header+a.n*types.EntryLen]
}
