package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CellKind discriminates the value carried by a Cell.
type CellKind uint8

const (
	CellNull CellKind = iota
	CellNumber
	CellText
	CellBool
)

// Cell is a loosely typed spreadsheet value. Exactly one payload field is
// meaningful, selected by Kind. The zero value is a null cell.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Bool   bool
}

// NullCell returns the null cell.
func NullCell() Cell {
	return Cell{Kind: CellNull}
}

// NumberCell returns a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// TextCell returns a text cell.
func TextCell(v string) Cell {
	return Cell{Kind: CellText, Text: v}
}

// BoolCell returns a boolean cell.
func BoolCell(v bool) Cell {
	return Cell{Kind: CellBool, Bool: v}
}

// IsNull reports whether the cell carries no value.
func (c Cell) IsNull() bool {
	return c.Kind == CellNull
}

// String renders the cell for prompts, logs and date extraction.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText:
		return c.Text
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}

// MarshalJSON encodes the cell as the raw scalar it wraps.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumber:
		return json.Marshal(c.Number)
	case CellText:
		return json.Marshal(c.Text)
	case CellBool:
		return json.Marshal(c.Bool)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a raw JSON scalar into the matching cell kind.
func (c *Cell) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = NullCell()
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = TextCell(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*c = BoolCell(b)
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return fmt.Errorf("cell value is neither scalar nor null: %w", err)
		}
		*c = NumberCell(f)
	}
	return nil
}
