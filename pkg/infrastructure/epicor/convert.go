package epicor

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// flexNumber decodes an Epicor numeric field. Epicor serializes numbers
// inconsistently: plain numbers, numeric strings, empty strings, or null all
// occur. Anything unparsable decodes as zero rather than failing the row.
type flexNumber struct {
	d decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler
func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		n.d = decimal.Zero
		return nil
	}
	if data[0] == '"' {
		data = bytes.Trim(data, `"`)
	}
	if len(data) == 0 {
		n.d = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		n.d = decimal.Zero
		return nil
	}
	n.d = d
	return nil
}

// Decimal returns the decoded value
func (n flexNumber) Decimal() decimal.Decimal {
	return n.d
}

// Int returns the decoded value truncated to an int
func (n flexNumber) Int() int {
	return int(n.d.IntPart())
}

// orDefault returns s, or def when s is empty
func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
