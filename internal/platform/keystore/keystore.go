package keystore

import (
	"crypto/ecdsa"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

const dataSignPrefix = "\x19Constellation Signed Data:\n"

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrInvalidSignature  = errors.New("invalid signature")
)

// KeyStore signs data updates with a single secp256k1 account.
type KeyStore struct {
	key       *ecdsa.PrivateKey
	publicKey string
	address   string
}

// FromPrivateKeyHex loads an account from a 64 hex character private key, with or without 0x.
func FromPrivateKeyHex(raw string) (*KeyStore, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	publicKey := hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey))
	address, err := AddressFromPublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return &KeyStore{key: key, publicKey: publicKey, address: address}, nil
}

// Address returns the DAG address of the account.
func (k *KeyStore) Address() string {
	return k.address
}

// PublicKeyHex returns the uncompressed public key, 04-prefixed.
func (k *KeyStore) PublicKeyHex() string {
	return k.publicKey
}

// DataSign signs an encoded data-update payload and returns the DER signature as hex.
func (k *KeyStore) DataSign(encoded string) (string, error) {
	sig, err := crypto.Sign(DataDigest(encoded), k.key)
	if err != nil {
		return "", fmt.Errorf("sign data: %w", err)
	}
	der, err := encodeDER(sig[:32], sig[32:64])
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(der), nil
}

// DataDigest returns the 32-byte digest signed for encoded.
func DataDigest(encoded string) []byte {
	message := dataSignPrefix + strconv.Itoa(len(encoded)) + "\n" + encoded
	sum := sha512.Sum512([]byte(message))
	return sum[:32]
}

// VerifyData checks a DataSign signature against a proof id or any accepted public key form.
func VerifyData(publicKey, encoded, signatureHex string) error {
	id, err := NormalizeProofID(publicKey)
	if err != nil {
		return err
	}
	pub, _ := hex.DecodeString("04" + id)

	der, err := hex.DecodeString(strings.TrimSpace(signatureHex))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	compact, err := decodeDER(der)
	if err != nil {
		return err
	}
	if !crypto.VerifySignature(pub, DataDigest(encoded), compact) {
		return ErrInvalidSignature
	}
	return nil
}
