package store

import "encoding/json"

// encodeList marshals an embedded list for a JSONB column. Nil encodes as [].
func encodeList[T any](items []T) ([]byte, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

func decodeList[T any](raw []byte) ([]T, error) {
	items := []T{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
