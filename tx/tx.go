package tx

import (
	"encoding/json"
	"fmt"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/gagliardetto/solana-go"
)

// MsigTx carries one instruction. Signers sign SigData in order; the first
// signer pays the nonce.
type MsigTx struct {
	Version  uint8              `json:"version"`
	Nonce    uint64             `json:"nonce"`
	Signers  []solana.PublicKey `json:"signers"`
	Accounts []solana.PublicKey `json:"accounts"`
	Data     []byte             `json:"data"`
	Sig      [][]byte           `json:"sig"`
}

func (tx *MsigTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func (tx *MsigTx) Opcode() Opcode {
	if len(tx.Data) == 0 {
		return Opcode(0xff)
	}
	return Opcode(tx.Data[0])
}

// Sender is the first signer.
func (tx *MsigTx) Sender() (pk solana.PublicKey, err error) {
	if len(tx.Signers) == 0 {
		err = fmt.Errorf("no signers: %w", ErrInvalidTx)
		return
	}
	return tx.Signers[0], nil
}

// Sign appends the signature of key, which must be the next signer in order.
func (tx *MsigTx) Sign(key ed25519.PrivKey, chainID string) (err error) {
	idx := len(tx.Sig)
	if idx >= len(tx.Signers) {
		return fmt.Errorf("all %d signers already signed: %w", len(tx.Signers), ErrInvalidTx)
	}
	pub := key.PubKey().Bytes()
	if !tx.Signers[idx].Equals(solana.PublicKeyFromBytes(pub)) {
		return fmt.Errorf("key %x is not signer %d: %w", pub, idx, ErrInvalidTx)
	}
	dat, err := tx.SigData([]byte(chainID))
	if err != nil {
		return
	}
	sig, err := key.Sign(dat)
	if err != nil {
		return
	}
	tx.Sig = append(tx.Sig, sig)
	return
}

// Verify checks one ed25519 signature per signer over SigData.
func (tx *MsigTx) Verify(chainID string) error {
	if len(tx.Signers) == 0 || len(tx.Sig) != len(tx.Signers) {
		return fmt.Errorf("%d signatures for %d signers: %w", len(tx.Sig), len(tx.Signers), ErrTxSigInvalid)
	}
	dat, err := tx.SigData([]byte(chainID))
	if err != nil {
		return err
	}
	for i, signer := range tx.Signers {
		if !ed25519.PubKey(signer.Bytes()).VerifySignature(dat, tx.Sig[i]) {
			return fmt.Errorf("signer %v: %w", signer, ErrTxSigInvalid)
		}
	}
	return nil
}

func UnmarshalMsigTx(dat []byte) (mtx *MsigTx, err error) {
	mtx = new(MsigTx)
	err = json.Unmarshal(dat, mtx)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidTx)
	}
	if mtx.Version != MsigTxVersion0 {
		return nil, ErrUnsupportedTxVersion
	}
	if len(mtx.Data) == 0 {
		return nil, fmt.Errorf("empty data: %w", ErrInvalidTx)
	}
	return
}

func MarshalMsigTx(mtx *MsigTx) (dat []byte, err error) {
	return json.Marshal(mtx)
}
