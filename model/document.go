package model

// Document is a flexible map representing a JSON document.
// The "id" field is the only required one and identifies the document across
// the store, the field index, and filter results. Other fields like "title",
// "state", or "tags" are accessed by their string keys and depend on index
// configuration.
type Document map[string]interface{}

// GetID returns the document identifier if it's stored under the "id" key.
func (d Document) GetID() (string, bool) {
	if id, ok := d["id"]; ok {
		if str, sok := id.(string); sok {
			if str != "" {
				return str, true
			}
		}
	}
	return "", false
}
