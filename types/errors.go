package types

import "errors"

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrAlreadyExists          = errors.New("record already exists")
	ErrNotFound               = errors.New("not found")
	ErrInvalidData            = errors.New("invalid data")
	ErrDuplicateEntry         = errors.New("duplicate entry")
	ErrOverflow               = errors.New("arithmetic overflow")
	ErrAddressMismatch        = errors.New("address mismatch")
	ErrInsufficientInputs     = errors.New("insufficient inputs")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
)

const (
	CodeUnknown uint32 = 99
	// CodeInvalidTx rejects a tx whose envelope fails to decode or verify.
	CodeInvalidTx uint32 = 100
)

var errorCodes = []struct {
	err  error
	code uint32
}{
	{ErrUnauthorized, 1},
	{ErrAlreadyExists, 2},
	{ErrNotFound, 3},
	{ErrInvalidData, 4},
	{ErrDuplicateEntry, 5},
	{ErrOverflow, 6},
	{ErrAddressMismatch, 7},
	{ErrInsufficientInputs, 8},
	{ErrInsufficientFunds, 9},
	{ErrUnsupportedInstruction, 10},
}

// ErrorCode maps err to the result code reported on a failed tx. Zero means success.
func ErrorCode(err error) uint32 {
	if err == nil {
		return 0
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
