package state

import (
	"fmt"

	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
)

// CreateTransaction stores an opaque buffer at the address derived from the
// payer and index. Accounts: payer, transaction.
func (e *Engine) CreateTransaction(signers SignerVerifier, accounts []solana.PublicKey, ix *tx.CreateTransactionInstruction) (event *types.EventCreateTransaction, err error) {
	if err = requireAccounts(accounts, 2); err != nil {
		return
	}
	payer, txAddr := accounts[0], accounts[1]
	if err = requireSigner(signers, payer); err != nil {
		return
	}
	if int(ix.BufferSize) > types.TxBufferCap {
		return nil, fmt.Errorf("buffer size %d: %w", ix.BufferSize, types.ErrInvalidData)
	}
	existing, err := e.store.Record(txAddr)
	if err != nil {
		return
	}
	if !existing.Empty() {
		return nil, fmt.Errorf("transaction %v: %w", txAddr, types.ErrAlreadyExists)
	}
	derived, bump, err := e.deriver.FindAddress(TransactionSeeds(payer, ix.TransactionIndex))
	if err != nil {
		return
	}
	if !derived.Equals(txAddr) {
		return nil, fmt.Errorf("transaction derived %v, supplied %v: %w", derived, txAddr, types.ErrAddressMismatch)
	}
	if err = e.store.CreateRecord(payer, txAddr, e.params.ProgramID, types.TransactionBufferLen); err != nil {
		return
	}
	buf := &types.TransactionBuffer{
		TransactionIndex: ix.TransactionIndex,
		BufferSize:       ix.BufferSize,
		Buffer:           ix.Buffer,
		Bump:             bump,
	}
	data := make([]byte, types.TransactionBufferLen)
	if err = buf.Encode(data); err != nil {
		return
	}
	if err = e.store.WriteData(txAddr, data); err != nil {
		return
	}
	event = &types.EventCreateTransaction{
		Transaction:      txAddr.String(),
		Payer:            payer.String(),
		TransactionIndex: ix.TransactionIndex,
		BufferSize:       ix.BufferSize,
	}
	return
}
