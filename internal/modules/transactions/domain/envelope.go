package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Proof binds a signer identity to a signature over the encoded message.
type Proof struct {
	ID        string `json:"id"`
	Signature string `json:"signature"`
}

// SignedEnvelope is the body posted to the data endpoint.
type SignedEnvelope struct {
	Value  Message
	Proofs []Proof
}

func (e SignedEnvelope) MarshalJSON() ([]byte, error) {
	if e.Value == nil {
		return nil, fmt.Errorf("%w: envelope without value", ErrInvalidMessage)
	}
	proofs := e.Proofs
	if proofs == nil {
		proofs = []Proof{}
	}
	return marshalCompact(struct {
		Value  map[string]Message `json:"value"`
		Proofs []Proof            `json:"proofs"`
	}{Value: tagged(e.Value), Proofs: proofs})
}

// RawEnvelope is the receiving side of SignedEnvelope, keeping value undecoded.
type RawEnvelope struct {
	Value  json.RawMessage `json:"value"`
	Proofs []Proof         `json:"proofs"`
}

// SigningPayload returns the base64 text that gets signed for msg.
func SigningPayload(msg Message) (string, error) {
	encoded, err := Encode(msg)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encoded), nil
}
