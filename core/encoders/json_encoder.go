package encoders

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/elliotchance/orderedmap/v3"
)

// Row is one report line with its keys in output order.
type Row = orderedmap.OrderedMap[string, any]

// NewRow builds a row from parallel key and value slices.
func NewRow(keys []string, values []any) *Row {
	row := orderedmap.NewOrderedMap[string, any]()
	for i, k := range keys {
		row.Set(k, values[i])
	}
	return row
}

// OrderedJSONEncoder encodes rows as JSON objects keeping key order.
type OrderedJSONEncoder struct{}

// EncodeRow renders one row as an indented JSON object.
func (OrderedJSONEncoder) EncodeRow(rowData *Row) ([]byte, error) {
	if rowData.Len() == 0 {
		return []byte("{}"), nil
	}

	var row bytes.Buffer
	row.Grow(rowData.Len() * 32)
	row.WriteString("{\n")

	i := 0
	for k, v := range rowData.AllFromFront() {
		if i > 0 {
			row.WriteString(",\n")
		}
		row.WriteString("    ")

		key, err := marshalWithoutHTMLEscape(k)
		if err != nil {
			return nil, fmt.Errorf("error marshaling key %q: %w", k, err)
		}
		row.Write(key)
		row.WriteString(": ")

		valueJSON, err := marshalWithoutHTMLEscape(v)
		if err != nil {
			return nil, fmt.Errorf("error marshaling value for key %q: %w", k, err)
		}
		row.Write(valueJSON)
		i++
	}

	row.WriteString("\n  }")
	return row.Bytes(), nil
}

// EncodeAll renders rows as a JSON array, one object per row.
func (e OrderedJSONEncoder) EncodeAll(rows []*Row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, r := range rows {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		b, err := e.EncodeRow(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		buf.Write(b)
	}
	if len(rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}

func marshalWithoutHTMLEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
