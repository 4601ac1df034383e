package state

const (
	DefaultRentOverhead  = 128
	DefaultRentPerByte   = 3480
	DefaultRentThreshold = 2
)

// Rent prices storage per byte. A record is exempt once it holds
// (overhead + size) * per_byte * threshold.
type Rent struct {
	PerByte   uint64
	Overhead  uint64
	Threshold uint64
}

func DefaultRent() Rent {
	return Rent{
		PerByte:   DefaultRentPerByte,
		Overhead:  DefaultRentOverhead,
		Threshold: DefaultRentThreshold,
	}
}

func (r Rent) MinimumBalance(size int) uint64 {
	if size < 0 {
		size = 0
	}
	return (r.Overhead + uint64(size)) * r.PerByte * r.Threshold
}
