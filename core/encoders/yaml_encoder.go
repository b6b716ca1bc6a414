package encoders

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// OrderedYAMLEncoder encodes rows as YAML mappings keeping key order.
type OrderedYAMLEncoder struct{}

// EncodeRow builds a YAML mapping node (one row).
func (OrderedYAMLEncoder) EncodeRow(rowData *Row) (*yaml.Node, error) {
	row := &yaml.Node{Kind: yaml.MappingNode}

	for k, v := range rowData.AllFromFront() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: k}

		valueNode := &yaml.Node{}
		if err := valueNode.Encode(v); err != nil {
			return nil, fmt.Errorf("error encoding value for key %q: %w", k, err)
		}
		row.Content = append(row.Content, keyNode, valueNode)
	}

	return row, nil
}

// EncodeAll renders rows as a YAML sequence document.
func (e OrderedYAMLEncoder) EncodeAll(rows []*Row) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for i, r := range rows {
		node, err := e.EncodeRow(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		seq.Content = append(seq.Content, node)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
