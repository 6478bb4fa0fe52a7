package geminiservice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	errEmptyResponse   = errors.New("empty response text")
	errTrailingData    = errors.New("unexpected data after the JSON document")
	errSchemaViolation = errors.New("response does not match the declared schema")
)

// Violation is one mismatch between a decoded document and its schema.
// Path uses dotted names and [i] indexes; the root is "$".
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// parseDocument decodes text as exactly one JSON document. Numbers are kept
// as json.Number so INTEGER fields can be told apart from fractional ones.
func parseDocument(text string) (any, error) {
	if text == "" {
		return nil, errEmptyResponse
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errTrailingData, err)
		}
		if len(bytes.TrimSpace(extra)) > 0 {
			return nil, errTrailingData
		}
	}
	return doc, nil
}

// ValidateDocument checks a decoded document against schema and returns every
// violation found. A nil schema accepts anything.
func ValidateDocument(doc any, schema *GeminiSchema) []Violation {
	var out []Violation
	validateValue(doc, schema, "$", &out)
	return out
}

func validateValue(value any, schema *GeminiSchema, path string, out *[]Violation) {
	if schema == nil {
		return
	}

	fail := func(format string, args ...any) {
		*out = append(*out, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if value == nil {
		fail("expected %s, got null", strings.ToLower(schema.Type))
		return
	}

	switch schema.Type {
	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			fail("expected object, got %s", jsonKind(value))
			return
		}
		for _, name := range schema.Required {
			if _, ok := obj[name]; !ok {
				*out = append(*out, Violation{Path: path + "." + name, Message: "required field is missing"})
			}
		}
		// sorted so violations come out in a stable order
		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if v, ok := obj[name]; ok {
				validateValue(v, schema.Properties[name], path+"."+name, out)
			}
		}

	case TypeArray:
		arr, ok := value.([]any)
		if !ok {
			fail("expected array, got %s", jsonKind(value))
			return
		}
		if schema.MinItems != nil && int64(len(arr)) < *schema.MinItems {
			fail("expected at least %d items, got %d", *schema.MinItems, len(arr))
		}
		for i, item := range arr {
			validateValue(item, schema.Items, fmt.Sprintf("%s[%d]", path, i), out)
		}

	case TypeString:
		s, ok := value.(string)
		if !ok {
			fail("expected string, got %s", jsonKind(value))
			return
		}
		if schema.MinLength != nil && int64(utf8.RuneCountInString(s)) < *schema.MinLength {
			fail("expected at least %d characters, got %d", *schema.MinLength, utf8.RuneCountInString(s))
		}
		if len(schema.Enum) > 0 && !contains(schema.Enum, s) {
			fail("value %q is not one of %s", s, strings.Join(schema.Enum, ", "))
		}

	case TypeInteger:
		num, ok := value.(json.Number)
		if !ok {
			fail("expected integer, got %s", jsonKind(value))
			return
		}
		n, err := num.Int64()
		if err != nil {
			fail("expected integer, got %s", num.String())
			return
		}
		if schema.Minimum != nil && float64(n) < *schema.Minimum {
			fail("value %d is below minimum %v", n, *schema.Minimum)
		}

	case TypeNumber:
		num, ok := value.(json.Number)
		if !ok {
			fail("expected number, got %s", jsonKind(value))
			return
		}
		f, err := num.Float64()
		if err != nil {
			fail("expected number, got %s", num.String())
			return
		}
		if schema.Minimum != nil && f < *schema.Minimum {
			fail("value %v is below minimum %v", f, *schema.Minimum)
		}

	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			fail("expected boolean, got %s", jsonKind(value))
		}
	}
}

func jsonKind(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
