package model

import (
	"time"
)

// Preset is a named, persisted filter definition for one index. RawQuery
// holds the filter in the same query-string syntax the filter endpoint
// accepts; it is validated when the preset is stored.
type Preset struct {
	Name        string    `json:"name"`
	RawQuery    string    `json:"raw_query"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
