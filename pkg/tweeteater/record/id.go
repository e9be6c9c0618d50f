package record

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
)

// maxExponent bounds the decimal exponent of a numeric id. Larger
// exponents would expand into arbitrarily long digit strings.
const maxExponent = 64

// ID is the canonical text form of a record identifier. Numeric ids keep
// every digit; 2, 2.0 and "2" all canonicalise to "2".
type ID string

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// ParseID canonicalises a decoded id value. Only numbers and non-empty
// strings are ids.
func ParseID(raw any) (ID, bool) {
	switch x := raw.(type) {
	case json.Number:
		return canonicalNumber(string(x))
	case string:
		if x == "" {
			return "", false
		}
		return ID(x), true
	case int:
		return ID(strconv.Itoa(x)), true
	case int64:
		return ID(strconv.FormatInt(x, 10)), true
	case float64:
		return canonicalNumber(strconv.FormatFloat(x, 'f', -1, 64))
	default:
		return "", false
	}
}

func canonicalNumber(s string) (ID, bool) {
	if i, ok := new(big.Int).SetString(s, 10); ok {
		return ID(i.String()), true
	}
	if e := strings.IndexAny(s, "eE"); e >= 0 {
		exp, err := strconv.Atoi(s[e+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return "", false
		}
	}
	f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
	if err != nil {
		return "", false
	}
	if !f.IsInt() {
		return ID(s), true
	}
	i, _ := f.Int(nil)
	return ID(i.String()), true
}
