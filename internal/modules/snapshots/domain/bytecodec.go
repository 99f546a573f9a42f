package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"metagraphOps/internal/shared/normalization"
)

var (
	ErrEmptyByteArray = errors.New("byte array is empty")
	ErrNotAByte       = errors.New("byte array element is not a number")
	ErrByteOutOfRange = errors.New("byte array element out of range")
	ErrInvalidUTF8    = errors.New("decoded bytes are not valid UTF-8")
)

// Byte values arrive either unsigned (0..255) or as JVM signed bytes (-128..127).
const (
	minByteValue = -128
	maxByteValue = 255
)

// DecodeByteArray converts JSON numbers into raw bytes. Negative values are two's
// complement signed bytes.
func DecodeByteArray(values []any) ([]byte, error) {
	if len(values) == 0 {
		return nil, ErrEmptyByteArray
	}
	out := make([]byte, len(values))
	for i, value := range values {
		if !normalization.IsNumber(value) {
			return nil, fmt.Errorf("%w: index %d holds %T", ErrNotAByte, i, value)
		}
		n, ok := normalization.AsInt64(value)
		if !ok || n < minByteValue || n > maxByteValue {
			return nil, fmt.Errorf("%w: index %d holds %v", ErrByteOutOfRange, i, value)
		}
		out[i] = byte(n)
	}
	return out, nil
}

// DecodeByteArrayJSON decodes values into bytes and parses them as a UTF-8 JSON document.
func DecodeByteArrayJSON(values []any) (any, error) {
	raw, err := DecodeByteArray(values)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, ErrInvalidUTF8
	}
	return decodeJSON(raw)
}

// EncodeByteArray renders raw bytes as the unsigned JSON number list DecodeByteArray accepts.
func EncodeByteArray(raw []byte) []int {
	out := make([]int, len(raw))
	for i, b := range raw {
		out[i] = int(b)
	}
	return out
}

// DecodeBlocks returns the decoded document when blocks is an array whose first element
// is a byte array, and blocks unchanged otherwise. Only element 0 is decoded.
func DecodeBlocks(blocks any) (any, error) {
	encoded, ok := byteArrayCandidate(blocks)
	if !ok {
		return blocks, nil
	}
	decoded, err := DecodeByteArrayJSON(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}
	return decoded, nil
}

func byteArrayCandidate(blocks any) ([]any, bool) {
	outer, ok := normalization.AsInterfaceSlice(blocks)
	if !ok || len(outer) == 0 {
		return nil, false
	}
	first, ok := normalization.AsInterfaceSlice(outer[0])
	if !ok || len(first) == 0 {
		return nil, false
	}
	if !normalization.IsNumber(first[0]) {
		return nil, false
	}
	return first, true
}

func decodeJSON(raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse decoded bytes: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse decoded bytes: trailing data after JSON document")
	}
	return doc, nil
}
