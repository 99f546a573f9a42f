package keystore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// pkcsPrefix is the DER SubjectPublicKeyInfo header for an uncompressed secp256k1 key.
const pkcsPrefix = "3056301006072a8648ce3d020106052b8104000a034200"

const (
	uncompressedHexLen = 130
	rawHexLen          = 128
	compressedHexLen   = 66
	addressTailLen     = 36
)

// AddressFromPublicKey derives the DAG address for a public key in any accepted form.
func AddressFromPublicKey(publicKey string) (string, error) {
	id, err := NormalizeProofID(publicKey)
	if err != nil {
		return "", err
	}
	der, err := hex.DecodeString(pkcsPrefix + "04" + id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	sum := sha256.Sum256(der)
	encoded := base58.Encode(sum[:])
	if len(encoded) < addressTailLen {
		return "", fmt.Errorf("%w: digest too short", ErrInvalidPublicKey)
	}
	tail := encoded[len(encoded)-addressTailLen:]

	digits := 0
	for _, c := range tail {
		if c >= '0' && c <= '9' {
			digits += int(c - '0')
		}
	}
	return "DAG" + strconv.Itoa(digits%9) + tail, nil
}

// NormalizeProofID renders a public key as the proof id carried in envelopes: the 128 hex
// characters of X||Y. Compressed keys are decompressed first.
func NormalizeProofID(publicKey string) (string, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(publicKey), "0x"))
	switch len(key) {
	case rawHexLen:
		key = "04" + key
	case uncompressedHexLen:
	case compressedHexLen:
		raw, err := hex.DecodeString(key)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		pub, err := crypto.DecompressPubkey(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		key = hex.EncodeToString(crypto.FromECDSAPub(pub))
	default:
		return "", fmt.Errorf("%w: unexpected length %d", ErrInvalidPublicKey, len(key))
	}

	raw, err := hex.DecodeString(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if _, err := crypto.UnmarshalPubkey(raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return key[2:], nil
}
