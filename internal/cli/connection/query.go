package connection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// EncodeQuery builds a query string (without the leading "?") from a GET
// payload. The payload may be a map with string keys or a struct, which is
// converted through its JSON form. Nil values are omitted, keys are sorted and
// both keys and values are percent-encoded as URI components.
func EncodeQuery(payload any) (string, error) {
	if payload == nil {
		return "", nil
	}

	params, err := toParams(payload)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(EscapeComponent(k))
		b.WriteByte('=')
		b.WriteString(EscapeComponent(formatValue(params[k])))
	}
	return b.String(), nil
}

func toParams(payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case map[string]any:
		return p, nil
	case map[string]string:
		out := make(map[string]any, len(p))
		for k, v := range p {
			out[k] = v
		}
		return out, nil
	}

	rv := reflect.ValueOf(payload)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("query payload must be a map or struct, got %T", payload)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode query payload: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("encode query payload: %w", err)
	}
	return out, nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				parts[i] = formatValue(e)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		data, _ := json.Marshal(x)
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}

// EscapeComponent percent-encodes s leaving only the URI component
// unreserved set (A-Z a-z 0-9 - _ . ! ~ * ' ( )) as is.
func EscapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
