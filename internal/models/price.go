package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Price хранит цену в том виде, в каком её прислал бэкенд ("150000", 1.5E+5, "1.5e5").
// Арифметика выполняется только после разбора через cart.ParsePrice.
type Price string

// UnmarshalJSON принимает и строку, и число.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("price: %w", err)
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// MarshalJSON пишет цену строкой, чтобы не терять точность.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}
