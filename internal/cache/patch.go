package cache

import "encoding/json"

func asObject(v any) (Document, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return Document(obj), true
	case Document:
		return obj, true
	default:
		return nil, false
	}
}

func decodeDocument(data []byte) (Document, error) {
	out := Document{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// flattenPatch converts a merge patch into dotted $set and $unset paths.
func flattenPatch(prefix string, patch Document, set, unset map[string]any) {
	for key, value := range patch {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if value == nil {
			unset[path] = ""
			continue
		}
		if obj, ok := asObject(value); ok && len(obj) > 0 {
			flattenPatch(path, obj, set, unset)
			continue
		}
		set[path] = value
	}
}
