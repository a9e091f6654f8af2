package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type RuleKind int

const (
	// Required strings may not be absent or null; they have no default.
	Required RuleKind = iota
	// Optional strings turn null or absent into "".
	Optional
	// List turns a null or absent array into an empty one.
	List
	// Tag accepts a bare string or an object carrying a name.
	Tag
	// Identifier keeps a whole-number row id and drops a null one.
	Identifier
)

func (kind RuleKind) String() string {
	switch kind {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case List:
		return "list"
	case Tag:
		return "tag"
	case Identifier:
		return "identifier"
	default:
		return fmt.Sprintf("rule(%d)", int(kind))
	}
}

// Rule binds a normalization to a field path pattern. A "*" segment matches
// every index of an array.
type Rule struct {
	Path string
	Kind RuleKind
}

// Array rules precede the rules for their elements.
var normalizationRules = []Rule{
	{Path: "id", Kind: Identifier},
	{Path: "name", Kind: Required},
	{Path: "desc", Kind: Optional},
	{Path: "website", Kind: Optional},
	{Path: "authors", Kind: List},
	{Path: "authors.*", Kind: Tag},
	{Path: "mod_vsns", Kind: List},
	{Path: "mod_vsns.*.id", Kind: Identifier},
	{Path: "mod_vsns.*.name", Kind: Required},
	{Path: "mod_vsns.*.desc", Kind: Optional},
	{Path: "mod_vsns.*.url", Kind: Optional},
	{Path: "mod_vsns.*.game_vsns", Kind: List},
	{Path: "mod_vsns.*.game_vsns.*", Kind: Tag},
	{Path: "mod_vsns.*.files", Kind: List},
	{Path: "mod_vsns.*.files.*.id", Kind: Identifier},
	{Path: "mod_vsns.*.files.*.desc", Kind: Optional},
	{Path: "mod_vsns.*.files.*.page_url", Kind: Optional},
	{Path: "mod_vsns.*.files.*.redirect_url", Kind: Optional},
	{Path: "mod_vsns.*.files.*.direct_url", Kind: Optional},
}

// Rules returns a copy of the normalization table.
func Rules() []Rule {
	out := make([]Rule, len(normalizationRules))
	copy(out, normalizationRules)
	return out
}

func applyRules(root map[string]any, rules []Rule) error {
	for _, rule := range rules {
		segments := strings.Split(rule.Path, ".")
		if _, err := applyRule(root, segments, nil, rule.Kind); err != nil {
			return err
		}
	}
	return nil
}

func applyRule(node any, segments []string, trail []string, kind RuleKind) (any, error) {
	if len(segments) == 0 {
		return kind.apply(node, JoinPath(trail))
	}

	head, rest := segments[0], segments[1:]
	if head == "*" {
		items, ok := node.([]any)
		if !ok {
			// Missing or mistyped arrays are reported by their List rule.
			return node, nil
		}
		for index := range items {
			value, err := applyRule(items[index], rest, extend(trail, strconv.Itoa(index)), kind)
			if err != nil {
				return nil, err
			}
			items[index] = value
		}
		return items, nil
	}

	object, ok := node.(map[string]any)
	if !ok {
		return nil, &SchemaError{Path: JoinPath(trail), Reason: "expected an object"}
	}

	value, present := object[head]
	if !present && len(rest) > 0 {
		return object, nil
	}

	updated, err := applyRule(value, rest, extend(trail, head), kind)
	if err != nil {
		return nil, err
	}
	if updated == nil && kind == Identifier {
		delete(object, head)
		return object, nil
	}
	object[head] = updated
	return object, nil
}

func extend(trail []string, segment string) []string {
	out := make([]string, len(trail), len(trail)+1)
	copy(out, trail)
	return append(out, segment)
}

func (kind RuleKind) apply(value any, path string) (any, error) {
	switch kind {
	case Required:
		if value == nil {
			return nil, &SchemaError{Path: path, Reason: "required field is missing"}
		}
		return coerceString(value, path)
	case Optional:
		if value == nil {
			return "", nil
		}
		return coerceString(value, path)
	case List:
		if value == nil {
			return []any{}, nil
		}
		if _, ok := value.([]any); !ok {
			return nil, &SchemaError{Path: path, Reason: "expected a list"}
		}
		return value, nil
	case Tag:
		return coerceTag(value, path)
	case Identifier:
		return coerceIdentifier(value, path)
	default:
		return nil, &SchemaError{Path: path, Reason: "unknown rule " + kind.String()}
	}
}

func coerceString(value any, path string) (any, error) {
	switch typed := value.(type) {
	case string:
		return typed, nil
	case json.Number:
		return typed.String(), nil
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(typed), nil
	default:
		return nil, &SchemaError{Path: path, Reason: "expected a string"}
	}
}

func coerceTag(value any, path string) (any, error) {
	if object, ok := value.(map[string]any); ok {
		name, present := object["name"]
		if !present || name == nil {
			return nil, &SchemaError{Path: path, Reason: "tag has no name"}
		}
		return coerceString(name, path)
	}
	if value == nil {
		return nil, &SchemaError{Path: path, Reason: "tag has no name"}
	}
	return coerceString(value, path)
}

func coerceIdentifier(value any, path string) (any, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if _, err := typed.Int64(); err != nil {
			return nil, &SchemaError{Path: path, Reason: "expected a whole number"}
		}
		return typed, nil
	case float64:
		if typed != math.Trunc(typed) || math.Abs(typed) > 1<<53 {
			return nil, &SchemaError{Path: path, Reason: "expected a whole number"}
		}
		return json.Number(strconv.FormatInt(int64(typed), 10)), nil
	case string:
		if _, err := strconv.ParseInt(typed, 10, 64); err != nil {
			return nil, &SchemaError{Path: path, Reason: "expected a whole number"}
		}
		return json.Number(typed), nil
	default:
		return nil, &SchemaError{Path: path, Reason: "expected a whole number"}
	}
}
