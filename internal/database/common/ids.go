package common

import (
	"strings"

	"github.com/google/uuid"
)

// ShortID returns a 12-character random identifier. Engine hooks embed it
// where full UUIDs do not fit, such as Oracle statement ids, which are
// capped at 30 characters.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
