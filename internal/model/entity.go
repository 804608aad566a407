package model

// Entity is a named-entity mention reported by the NER provider.
type Entity struct {
	// NE is the mention text.
	NE string `json:"ne"`

	// Type is the entity category, for example "person" or "location".
	Type string `json:"type"`
}
