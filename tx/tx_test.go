package tx

import (
	"testing"

	"github.com/calehh/msig-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pubOf(k ed25519.PrivKey) solana.PublicKey {
	return solana.PublicKeyFromBytes(k.PubKey().Bytes())
}

func TestSignVerify(t *testing.T) {
	k1 := ed25519.GenPrivKey()
	k2 := ed25519.GenPrivKey()
	mtx := &MsigTx{
		Nonce:    3,
		Signers:  []solana.PublicKey{pubOf(k1), pubOf(k2)},
		Accounts: []solana.PublicKey{pubOf(k1)},
		Data:     (&VoteInstruction{Choice: types.VoteYes}).Encode(),
	}
	require.NoError(t, mtx.Sign(k1, "chain"))
	assert.Error(t, mtx.Verify("chain"))
	assert.ErrorIs(t, mtx.Sign(k1, "chain"), ErrInvalidTx)
	require.NoError(t, mtx.Sign(k2, "chain"))
	require.NoError(t, mtx.Verify("chain"))
	assert.ErrorIs(t, mtx.Verify("other"), ErrTxSigInvalid)

	dat, err := MarshalMsigTx(mtx)
	require.NoError(t, err)
	got, err := UnmarshalMsigTx(dat)
	require.NoError(t, err)
	require.NoError(t, got.Verify("chain"))
	assert.Equal(t, OpVote, got.Opcode())
	sender, err := got.Sender()
	require.NoError(t, err)
	assert.Equal(t, pubOf(k1), sender)
}

func TestVerifyTampered(t *testing.T) {
	k := ed25519.GenPrivKey()
	mtx := &MsigTx{Signers: []solana.PublicKey{pubOf(k)}, Data: []byte{byte(OpVote), 0, 0, 1}}
	require.NoError(t, mtx.Sign(k, "c"))
	mtx.Nonce = 9
	assert.ErrorIs(t, mtx.Verify("c"), ErrTxSigInvalid)
}

func TestUnmarshalRejects(t *testing.T) {
	_, err := UnmarshalMsigTx([]byte("{"))
	assert.ErrorIs(t, err, ErrInvalidTx)
	_, err = UnmarshalMsigTx([]byte(`{"version":1,"data":"AA=="}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxVersion)
	_, err = UnmarshalMsigTx([]byte(`{"version":0}`))
	assert.ErrorIs(t, err, ErrInvalidTx)
}
