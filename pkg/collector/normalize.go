package collector

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeGroupID converts a submitted source identifier to its
// canonical positive numeric form. Community identifiers are commonly
// written negative ("-12345") to distinguish groups from users; the
// pipeline works with the positive id everywhere and reapplies the
// sign only at the wire.
func NormalizeGroupID(source string) (int64, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return 0, fmt.Errorf("empty source identifier")
	}

	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable source identifier %q: %w", source, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("source identifier %q is zero", source)
	}

	if id < 0 {
		id = -id
	}
	return id, nil
}
