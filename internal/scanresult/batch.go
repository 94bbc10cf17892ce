package scanresult

import (
	"bytes"
	"encoding/json"
	"errors"
)

var ErrNotJSON = errors.New("payload is neither a JSON object nor an array")

// SplitBatch turns a payload holding one result object or an array of
// results into its elements. Elements are not validated further; Normalize
// copes with whatever shape they have.
func SplitBatch(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNotJSON
	}
	switch data[0] {
	case '[':
		var batch []json.RawMessage
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, ErrNotJSON
		}
		return batch, nil
	case '{':
		if !json.Valid(data) {
			return nil, ErrNotJSON
		}
		return []json.RawMessage{json.RawMessage(data)}, nil
	}
	return nil, ErrNotJSON
}
