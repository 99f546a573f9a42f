package domain

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

const testAddress = "DAG118xcqyJ1pKKbxNqBuqjP9w12exFuKc2zPk4g"

func TestEncodeCreateSalesChannelWireForm(t *testing.T) {
	t.Parallel()

	data, err := Encode(DefaultCatalog().CreateSalesChannel(testAddress))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"CreateSalesChannel":{"name":"aba3","owner":"` + testAddress + `","station":"one","products":[["Long",5],["Red",10]],"startSnapshotOrdinal":100,"endSnapshotOrdinal":10000}}`
	if string(data) != expected {
		t.Fatalf("unexpected wire form:\n got %s\nwant %s", data, expected)
	}
}

func TestEncodeDoesNotEscapeHTML(t *testing.T) {
	data, err := Encode(AddSeller{ChannelID: "a&b", Address: "<x>", Seller: "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"AddSeller":{"channelId":"a&b","address":"<x>","seller":"y"}}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestDependentBuildersOrderAndChannel(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1717171717171)
	expected := []Kind{KindAddSeller, KindSale, KindAddInventory, KindMoveInventory, KindAddProducts}
	builders := DefaultCatalog().DependentBuilders()
	if len(builders) != len(expected) {
		t.Fatalf("expected %d builders, got %d", len(expected), len(builders))
	}

	for i, build := range builders {
		msg := build("abc123", testAddress, at)
		if msg.Kind() != expected[i] {
			t.Fatalf("builder %d produced %s, expected %s", i, msg.Kind(), expected[i])
		}
		scoped, ok := msg.(ChannelScoped)
		if !ok {
			t.Fatalf("%s is not channel scoped", msg.Kind())
		}
		if scoped.Channel() != "abc123" {
			t.Fatalf("%s carries channel %q", msg.Kind(), scoped.Channel())
		}
		if err := msg.Validate(); err != nil {
			t.Fatalf("%s failed validation: %v", msg.Kind(), err)
		}
	}

	sale := builders[1]("abc123", testAddress, at).(Sale)
	if sale.Timestamp != "1717171717171" {
		t.Fatalf("unexpected sale timestamp: %s", sale.Timestamp)
	}
	move := builders[3]("abc123", testAddress, at).(MoveInventory)
	if move.FromStation != "first station" || move.ToStation != "second station" || move.Amount != 10 {
		t.Fatalf("unexpected move inventory: %+v", move)
	}
}

func TestCatalogBuildersDoNotShareProductSlices(t *testing.T) {
	catalog := DefaultCatalog()
	msg := catalog.CreateSalesChannel(testAddress)
	msg.Products[0].Amount = 999
	if catalog.ChannelProducts[0].Amount != 5 {
		t.Fatal("catalog products mutated through a built message")
	}
}

func TestDecodeValidatesMessages(t *testing.T) {
	cases := map[string]struct {
		body     string
		expected error
	}{
		"two variants":    {`{"AddSeller":{},"Sale":{}}`, ErrInvalidMessage},
		"unknown kind":    {`{"Vote":{"channelId":"x"}}`, ErrUnknownKind},
		"unknown field":   {`{"AddSeller":{"channelId":"x","address":"a","seller":"s","extra":1}}`, ErrInvalidMessage},
		"missing channel": {`{"AddSeller":{"address":"a","seller":"s"}}`, ErrInvalidMessage},
		"bad pair":        {`{"AddProducts":{"channelId":"x","address":"a","products":[["Coke"]]}}`, ErrInvalidMessage},
		"bad timestamp":   {`{"AddInventory":{"channelId":"x","address":"a","station":"s","product":"p","amount":1,"timestamp":"soon"}}`, ErrInvalidMessage},
		"not json":        {`nope`, ErrInvalidMessage},
	}

	for name, tc := range cases {
		if _, err := Decode([]byte(tc.body)); !errors.Is(err, tc.expected) {
			t.Fatalf("%s: expected %v, got %v", name, tc.expected, err)
		}
	}

	msg, err := Decode([]byte(`{"AddProducts":{"channelId":"abc123","address":"a","products":[["Coke",5]]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	products := msg.(AddProducts).Products
	if len(products) != 1 || products[0] != (ProductAmount{Product: "Coke", Amount: 5}) {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestSignedEnvelopeMarshal(t *testing.T) {
	env := SignedEnvelope{
		Value:  AddSeller{ChannelID: "abc123", Address: "a", Seller: "a"},
		Proofs: []Proof{{ID: "ff", Signature: "3044"}},
	}
	data, err := env.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := `{"value":{"AddSeller":{"channelId":"abc123","address":"a","seller":"a"}},"proofs":[{"id":"ff","signature":"3044"}]}`
	if string(data) != expected {
		t.Fatalf("unexpected envelope:\n got %s\nwant %s", data, expected)
	}

	if _, err := (SignedEnvelope{}).MarshalJSON(); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage for empty envelope, got %v", err)
	}
}

func TestSigningPayloadIsBase64OfWireForm(t *testing.T) {
	msg := AddSeller{ChannelID: "abc123", Address: "a", Seller: "a"}
	payload, err := SigningPayload(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	encoded, _ := Encode(msg)
	if string(raw) != string(encoded) {
		t.Fatalf("payload decodes to %s, expected %s", raw, encoded)
	}
}

func TestStateTransitions(t *testing.T) {
	allowed := map[[2]State]bool{
		{StateInit, StateChannelCreated}:    true,
		{StateInit, StateAborted}:           true,
		{StateInit, StateSending}:           false,
		{StateChannelCreated, StateSending}: true,
		{StateSending, StateDone}:           true,
		{StateAborted, StateSending}:        false,
		{StateDone, StateInit}:              false,
	}
	for pair, expected := range allowed {
		if got := pair[0].CanTransition(pair[1]); got != expected {
			t.Fatalf("%s -> %s: got %v, expected %v", pair[0], pair[1], got, expected)
		}
	}
	if !StateAborted.Terminal() || !StateDone.Terminal() || StateInit.Terminal() {
		t.Fatal("unexpected terminal states")
	}
}
