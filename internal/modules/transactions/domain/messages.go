package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Kind tags a data-update variant on the wire: {"<Kind>": {...}}.
type Kind string

const (
	KindCreateSalesChannel Kind = "CreateSalesChannel"
	KindAddSeller          Kind = "AddSeller"
	KindSale               Kind = "Sale"
	KindAddInventory       Kind = "AddInventory"
	KindMoveInventory      Kind = "MoveInventory"
	KindAddProducts        Kind = "AddProducts"
)

var (
	ErrUnknownKind    = errors.New("unknown message kind")
	ErrInvalidMessage = errors.New("invalid message")
)

// Message is one sales-channel data update.
type Message interface {
	Kind() Kind
	Validate() error
}

// ChannelScoped is implemented by every message that targets an existing channel.
type ChannelScoped interface {
	Message
	Channel() string
}

// ProductAmount serialises as a two-element array: ["Long", 5].
type ProductAmount struct {
	Product string
	Amount  int64
}

func (p ProductAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Product, p.Amount})
}

func (p *ProductAmount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: product pair must have 2 elements, got %d", ErrInvalidMessage, len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Product); err != nil {
		return fmt.Errorf("%w: product name: %v", ErrInvalidMessage, err)
	}
	if err := json.Unmarshal(pair[1], &p.Amount); err != nil {
		return fmt.Errorf("%w: product amount: %v", ErrInvalidMessage, err)
	}
	return nil
}

type CreateSalesChannel struct {
	Name                 string          `json:"name"`
	Owner                string          `json:"owner"`
	Station              string          `json:"station"`
	Products             []ProductAmount `json:"products"`
	StartSnapshotOrdinal int64           `json:"startSnapshotOrdinal"`
	EndSnapshotOrdinal   int64           `json:"endSnapshotOrdinal"`
}

type AddSeller struct {
	ChannelID string `json:"channelId"`
	Address   string `json:"address"`
	Seller    string `json:"seller"`
}

type Sale struct {
	ChannelID string          `json:"channelId"`
	Address   string          `json:"address"`
	Station   string          `json:"station"`
	Sale      []ProductAmount `json:"sale"`
	Payment   string          `json:"payment"`
	Timestamp string          `json:"timestamp"`
}

type AddInventory struct {
	ChannelID string `json:"channelId"`
	Address   string `json:"address"`
	Station   string `json:"station"`
	Product   string `json:"product"`
	Amount    int64  `json:"amount"`
	Timestamp string `json:"timestamp"`
}

type MoveInventory struct {
	ChannelID   string `json:"channelId"`
	Address     string `json:"address"`
	ToAddress   string `json:"toAddress"`
	FromStation string `json:"fromStation"`
	ToStation   string `json:"toStation"`
	Product     string `json:"product"`
	Amount      int64  `json:"amount"`
	Timestamp   string `json:"timestamp"`
}

type AddProducts struct {
	ChannelID string          `json:"channelId"`
	Address   string          `json:"address"`
	Products  []ProductAmount `json:"products"`
}

func (CreateSalesChannel) Kind() Kind { return KindCreateSalesChannel }
func (AddSeller) Kind() Kind          { return KindAddSeller }
func (Sale) Kind() Kind               { return KindSale }
func (AddInventory) Kind() Kind       { return KindAddInventory }
func (MoveInventory) Kind() Kind      { return KindMoveInventory }
func (AddProducts) Kind() Kind        { return KindAddProducts }

func (m AddSeller) Channel() string     { return m.ChannelID }
func (m Sale) Channel() string          { return m.ChannelID }
func (m AddInventory) Channel() string  { return m.ChannelID }
func (m MoveInventory) Channel() string { return m.ChannelID }
func (m AddProducts) Channel() string   { return m.ChannelID }

func (m CreateSalesChannel) Validate() error {
	return firstError(
		required("name", m.Name),
		required("owner", m.Owner),
		required("station", m.Station),
		validProducts("products", m.Products),
		orderedOrdinals(m.StartSnapshotOrdinal, m.EndSnapshotOrdinal),
	)
}

func (m AddSeller) Validate() error {
	return firstError(required("channelId", m.ChannelID), required("address", m.Address), required("seller", m.Seller))
}

func (m Sale) Validate() error {
	return firstError(
		required("channelId", m.ChannelID),
		required("address", m.Address),
		required("station", m.Station),
		validProducts("sale", m.Sale),
		required("payment", m.Payment),
		validTimestamp(m.Timestamp),
	)
}

func (m AddInventory) Validate() error {
	return firstError(
		required("channelId", m.ChannelID),
		required("address", m.Address),
		required("station", m.Station),
		required("product", m.Product),
		positive("amount", m.Amount),
		validTimestamp(m.Timestamp),
	)
}

func (m MoveInventory) Validate() error {
	return firstError(
		required("channelId", m.ChannelID),
		required("address", m.Address),
		required("toAddress", m.ToAddress),
		required("fromStation", m.FromStation),
		required("toStation", m.ToStation),
		required("product", m.Product),
		positive("amount", m.Amount),
		validTimestamp(m.Timestamp),
	)
}

func (m AddProducts) Validate() error {
	return firstError(required("channelId", m.ChannelID), required("address", m.Address), validProducts("products", m.Products))
}

// Timestamp renders at as Unix milliseconds, the form the metagraph expects in messages.
func Timestamp(at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 10)
}

// Encode serialises msg in its tagged wire form without HTML escaping, which is
// the exact byte sequence that gets signed.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	return marshalCompact(tagged(msg))
}

// Decode parses a tagged wire message and validates it.
func Decode(data []byte) (Message, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if len(wrapper) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one variant, got %d", ErrInvalidMessage, len(wrapper))
	}

	var (
		kind Kind
		body json.RawMessage
	)
	for k, v := range wrapper {
		kind, body = Kind(k), v
	}

	var msg Message
	var err error
	switch kind {
	case KindCreateSalesChannel:
		msg, err = decodeVariant[CreateSalesChannel](body)
	case KindAddSeller:
		msg, err = decodeVariant[AddSeller](body)
	case KindSale:
		msg, err = decodeVariant[Sale](body)
	case KindAddInventory:
		msg, err = decodeVariant[AddInventory](body)
	case KindMoveInventory:
		msg, err = decodeVariant[MoveInventory](body)
	case KindAddProducts:
		msg, err = decodeVariant[AddProducts](body)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

func decodeVariant[T Message](body json.RawMessage) (Message, error) {
	var out T
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, out.Kind(), err)
	}
	return out, nil
}

func tagged(msg Message) map[string]Message {
	return map[string]Message{string(msg.Kind()): msg}
}

func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func required(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidMessage, field)
	}
	return nil
}

func positive(field string, value int64) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidMessage, field)
	}
	return nil
}

func validProducts(field string, products []ProductAmount) error {
	if len(products) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidMessage, field)
	}
	for i, p := range products {
		if p.Product == "" || p.Amount <= 0 {
			return fmt.Errorf("%w: %s[%d] needs a product name and a positive amount", ErrInvalidMessage, field, i)
		}
	}
	return nil
}

func orderedOrdinals(start, end int64) error {
	if start < 0 || end < start {
		return fmt.Errorf("%w: snapshot ordinals %d..%d", ErrInvalidMessage, start, end)
	}
	return nil
}

func validTimestamp(value string) error {
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return fmt.Errorf("%w: timestamp %q is not Unix milliseconds", ErrInvalidMessage, value)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
