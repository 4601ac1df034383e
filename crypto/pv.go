package crypto

import (
	"fmt"
	"os"

	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
	"github.com/gagliardetto/solana-go"
)

// PV is an ed25519 key loaded from a priv_validator_key.json file. Its public
// key doubles as the signer identity on the msig chain.
type PV struct {
	privateKey ed25519.PrivKey
	publicKey  crypto.PubKey
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading PrivValidator key from %v: %w", keyFilePath, err)
	}
	priv, ok := pvKey.PrivKey.(ed25519.PrivKey)
	if !ok {
		return nil, fmt.Errorf("key %v is %s, want %s", keyFilePath, pvKey.PrivKey.Type(), ed25519.KeyType)
	}
	return NewPV(priv), nil
}

func NewPV(priv ed25519.PrivKey) *PV {
	return &PV{
		privateKey: priv,
		publicKey:  priv.PubKey(),
	}
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

// Address is the base58 signer identity.
func (k *PV) Address() solana.PublicKey {
	return solana.PublicKeyFromBytes(k.publicKey.Bytes())
}

// ValidatorAddress is the cometbft address of the same key.
func (k *PV) ValidatorAddress() string {
	return k.publicKey.Address().String()
}

func (k *PV) PrivKey() ed25519.PrivKey {
	return k.privateKey
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}
