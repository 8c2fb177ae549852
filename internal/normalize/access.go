package normalize

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"
)

// fieldPath addresses one nested location inside a payload. Array
// indexes are decimal strings, as fastjson expects.
type fieldPath []string

func path(keys ...string) fieldPath { return fieldPath(keys) }

func (p fieldPath) String() string { return strings.Join(p, ".") }

// arrayAt returns the elements of the first path holding an array. A
// missing path is skipped; a path holding a non-array value is an
// extraction fault, since the shape claimed to match but cannot be
// traversed.
func arrayAt(v *fastjson.Value, paths ...fieldPath) ([]*fastjson.Value, error) {
	for _, p := range paths {
		node := v.Get(p...)
		if node == nil {
			continue
		}
		if node.Type() != fastjson.TypeArray {
			return nil, fmt.Errorf("field %s: expected array, got %s", p, node.Type())
		}
		return node.GetArray(), nil
	}
	return nil, nil
}

// firstStringOK returns the value of the first path holding a string,
// reporting whether any path matched.
func firstStringOK(v *fastjson.Value, paths ...fieldPath) (string, bool) {
	for _, p := range paths {
		node := v.Get(p...)
		if node == nil || node.Type() != fastjson.TypeString {
			continue
		}
		b, err := node.StringBytes()
		if err != nil {
			continue
		}
		return string(b), true
	}
	return "", false
}

// firstString is firstStringOK with a default for the all-absent case.
func firstString(v *fastjson.Value, def string, paths ...fieldPath) string {
	if s, ok := firstStringOK(v, paths...); ok {
		return s
	}
	return def
}

// firstUint returns the first path holding a non-negative integer.
// Values of the wrong type, including negative numbers, are treated as
// absent.
func firstUint(v *fastjson.Value, def uint64, paths ...fieldPath) uint64 {
	for _, p := range paths {
		node := v.Get(p...)
		if node == nil || node.Type() != fastjson.TypeNumber {
			continue
		}
		n, err := node.Uint64()
		if err != nil {
			continue
		}
		return n
	}
	return def
}

// isFalse reports whether the first matching path holds an explicit
// JSON false. Absence and any other value are not false.
func isFalse(v *fastjson.Value, paths ...fieldPath) bool {
	for _, p := range paths {
		node := v.Get(p...)
		if node == nil {
			continue
		}
		return node.Type() == fastjson.TypeFalse
	}
	return false
}
