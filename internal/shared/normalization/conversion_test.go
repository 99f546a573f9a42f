package normalization

import (
	"encoding/json"
	"testing"
)

func TestAsInt64(t *testing.T) {
	type result struct {
		value int64
		ok    bool
	}
	cases := map[string]struct {
		input    any
		expected result
	}{
		"float":          {float64(42), result{42, true}},
		"fractional":     {float64(4.5), result{0, false}},
		"json number":    {json.Number("-12"), result{-12, true}},
		"json exponent":  {json.Number("1e3"), result{1000, true}},
		"json fraction":  {json.Number("1.25"), result{0, false}},
		"numeric string": {" 77 ", result{77, true}},
		"word":           {"seven", result{0, false}},
		"nil":            {nil, result{0, false}},
		"bool":           {true, result{0, false}},
	}

	for name, tc := range cases {
		value, ok := AsInt64(tc.input)
		if value != tc.expected.value || ok != tc.expected.ok {
			t.Fatalf("%s: AsInt64(%#v) = (%d, %v), expected (%d, %v)", name, tc.input, value, ok, tc.expected.value, tc.expected.ok)
		}
	}
}

func TestIsNumberRejectsStrings(t *testing.T) {
	if IsNumber("1") {
		t.Fatal("numeric string must not count as a JSON number")
	}
	if !IsNumber(json.Number("1")) || !IsNumber(float64(1)) {
		t.Fatal("expected JSON numbers to be recognised")
	}
}

func TestAsStringTrims(t *testing.T) {
	if got := AsString("  abc123 "); got != "abc123" {
		t.Fatalf("unexpected value: %q", got)
	}
	if got := AsString(12); got != "" {
		t.Fatalf("expected empty string for non-string, got %q", got)
	}
}
