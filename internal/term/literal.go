package term

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FromLiteral builds a term tree from the shared literal grammar used by
// both front ends (CUE bundles and YAML scenarios):
//
//   - a string starting with "$" is a Variable node
//   - a string that parses as a number is a Number node
//   - any other string is a Concept node
//   - a numeric value is a Number node
//   - a list [TypeName, ...] is constructed by the named type: node types
//     take exactly one string argument (the name), link types take nested
//     literals
//
// The returned tree is not interned; pass it through a store to
// canonicalize. Errors name the offending position.
func FromLiteral(v any) (*Term, error) {
	return fromLiteral(v, "literal")
}

func fromLiteral(v any, path string) (*Term, error) {
	switch val := v.(type) {
	case string:
		return leafFromString(val), nil
	case int:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case float64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", path, val)
		}
		return Number(f), nil
	case []any:
		return listFromLiteral(val, path)
	case nil:
		return nil, fmt.Errorf("%s: null is not a term", path)
	default:
		return nil, fmt.Errorf("%s: unsupported literal type %T", path, v)
	}
}

// leafFromString maps a bare string to its leaf node form.
func leafFromString(s string) *Term {
	if strings.HasPrefix(s, "$") {
		return Var(s)
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return NewNode(TypeNumber, s)
	}
	return Concept(s)
}

func listFromLiteral(list []any, path string) (*Term, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("%s: empty list, expected [TypeName, ...]", path)
	}
	head, ok := list[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s: list head must be a type name string, got %T", path, list[0])
	}
	typ, ok := TypeByName(head)
	if !ok {
		return nil, fmt.Errorf("%s: unknown type %q", path, head)
	}

	if typ.IsNode() {
		if len(list) != 2 {
			return nil, fmt.Errorf("%s: node type %s takes exactly one name argument, got %d", path, typ, len(list)-1)
		}
		name, ok := list[1].(string)
		if !ok {
			return nil, fmt.Errorf("%s: %s name must be a string, got %T", path, typ, list[1])
		}
		if typ == TypeNumber {
			if _, err := strconv.ParseFloat(name, 64); err != nil {
				return nil, fmt.Errorf("%s: invalid Number name %q", path, name)
			}
		}
		return NewNode(typ, name), nil
	}

	out := make([]*Term, 0, len(list)-1)
	for i, elem := range list[1:] {
		child, err := fromLiteral(elem, fmt.Sprintf("%s[%d]", path, i+1))
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return NewLink(typ, out...), nil
}
