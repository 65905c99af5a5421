package api

import (
	"strconv"
	"strings"

	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
)

// mediaRecipesPath is where recipe images are served from.
const mediaRecipesPath = "/media/recipes/"

// parseIDList parses a comma separated list of positive integer IDs such
// as "1,2,3". Empty input and empty items are skipped; anything else that
// is not an ID is a validation error on field.
func parseIDList(field, raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, domainerrors.ValidationField(field, "invalid id "+strconv.Quote(part)+", expected a comma separated list of ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// imageURL returns the public URL of a stored recipe image, or nil.
func imageURL(name string) *string {
	if name == "" {
		return nil
	}
	url := mediaRecipesPath + name
	return &url
}

func formatCount(n uint64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.FormatUint(n, 10) + " " + noun + "s"
}
