package chat

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var nameFolder = cases.Fold()

// normalizeRoomName canonicalizes a chatroom name for the best-effort
// uniqueness comparison: NFKC normalization, case folding, collapsed
// whitespace. Two rooms whose names fold to the same string count as
// duplicates.
func normalizeRoomName(name string) string {
	s := norm.NFKC.String(name)
	s = nameFolder.String(s)
	return strings.Join(strings.Fields(s), " ")
}
