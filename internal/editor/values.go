package editor

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Affinity is the SQLite type affinity derived from a column's declared type.
type Affinity int

const (
	AffinityText Affinity = iota
	AffinityInteger
	AffinityReal
	AffinityNumeric
	AffinityBlob
)

// AffinityOf maps a declared column type onto its affinity following the
// engine's own rules (https://sqlite.org/datatype3.html, section 3.1).
func AffinityOf(declared string) Affinity {
	t := strings.ToUpper(declared)
	switch {
	case strings.Contains(t, "INT"):
		return AffinityInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return AffinityText
	case t == "", strings.Contains(t, "BLOB"):
		return AffinityBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return AffinityReal
	default:
		return AffinityNumeric
	}
}

// ParseValue converts raw user input into a typed value for binding. The
// empty string is the explicit NULL marker. Numeric affinities reject
// anything that does not parse; blob input is accepted as x'hex' or raw
// bytes.
func ParseValue(declared, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}

	switch AffinityOf(declared) {
	case AffinityInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", raw)
		}
		return n, nil
	case AffinityReal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", raw)
		}
		return f, nil
	case AffinityNumeric:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("not numeric: %q", raw)
	case AffinityBlob:
		if b, ok := parseHexBlob(raw); ok {
			return b, nil
		}
		return []byte(raw), nil
	default:
		return raw, nil
	}
}

// parseHexBlob decodes the x'ABCD' literal form.
func parseHexBlob(raw string) ([]byte, bool) {
	s := strings.ToLower(raw)
	if !strings.HasPrefix(s, "x'") || !strings.HasSuffix(s, "'") {
		return nil, false
	}
	b, err := hex.DecodeString(s[2 : len(s)-1])
	if err != nil {
		return nil, false
	}
	return b, true
}
