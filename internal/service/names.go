package service

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NameInput is a nested {"name": ...} object in a recipe payload. Other
// keys, such as an id echoed back by a client, are ignored.
type NameInput struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" validate:"required,notblank,max=255"`
}

// normalizeName trims surrounding whitespace and converts to NFC, so
// visually identical names typed on different keyboards match one row.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// uniqueNames normalizes inputs and drops repeats, keeping first-seen order.
func uniqueNames(inputs []NameInput) []string {
	seen := make(map[string]struct{}, len(inputs))
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		name := normalizeName(in.Name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
