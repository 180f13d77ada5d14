package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Member is one key of a JSON object. Objects keep the key order the server sent.
type Member struct {
	Key   string
	Value Value
}

// Value is a decoded JSON document. The zero value is JSON null.
type Value struct {
	kind    ValueKind
	b       bool
	num     json.Number
	str     string
	items   []Value
	members []Member
}

func Null() Value                { return Value{} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }
func String(s string) Value      { return Value{kind: KindString, str: s} }
func Array(items ...Value) Value { return Value{kind: KindArray, items: items} }
func Object(members ...Member) Value {
	return Value{kind: KindObject, members: members}
}

func (v Value) Kind() ValueKind     { return v.kind }
func (v Value) IsNull() bool        { return v.kind == KindNull }
func (v Value) Items() []Value      { return v.items }
func (v Value) Members() []Member   { return v.members }
func (v Value) BoolValue() bool     { return v.kind == KindBool && v.b }
func (v Value) NumberValue() string { return string(v.num) }

// Get returns the first member named key of an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Text returns strings as-is and numbers in their JSON spelling. Everything else is "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return string(v.num)
	default:
		return ""
	}
}

// GetText is Get followed by Text.
func (v Value) GetText(key string) string {
	m, _ := v.Get(key)
	return m.Text()
}

// Redact returns a copy of v where the listed object keys, at any depth, hold "[REDACTED]".
func (v Value) Redact(keys ...string) Value {
	switch v.kind {
	case KindArray:
		out := make([]Value, len(v.items))
		for i, it := range v.items {
			out[i] = it.Redact(keys...)
		}
		return Array(out...)
	case KindObject:
		out := make([]Member, len(v.members))
		for i, m := range v.members {
			out[i] = Member{Key: m.Key, Value: m.Value.Redact(keys...)}
			for _, k := range keys {
				if m.Key == k && !m.Value.IsNull() {
					out[i].Value = String("[REDACTED]")
				}
			}
		}
		return Object(out...)
	default:
		return v
	}
}

// ExtractIdentifier looks for a job or resource identifier in a response.
// Direct keys id, job_id and uuid are tried first, then nested objects depth-first.
// The first non-empty string or non-zero number wins.
func ExtractIdentifier(v Value) (string, bool) {
	if v.kind != KindObject {
		return "", false
	}
	for _, key := range []string{"id", "job_id", "uuid"} {
		if m, ok := v.Get(key); ok {
			if id := identifierText(m); id != "" {
				return id, true
			}
		}
	}
	for _, m := range v.members {
		if id, ok := ExtractIdentifier(m.Value); ok {
			return id, true
		}
	}
	return "", false
}

func identifierText(v Value) string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if f, err := v.num.Float64(); err == nil && f == 0 {
			return ""
		}
		return string(v.num)
	default:
		return ""
	}
}

// ParseValue decodes one JSON document. Empty input decodes to null.
func ParseValue(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Null(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("json: trailing data after document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			members := []Member{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("json: unexpected object key %v", kt)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(members...), nil
		case '[':
			items := []Value{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		default:
			return Value{}, fmt.Errorf("json: unexpected delimiter %v", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("json: unexpected token %v", tok)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if v.num == "" {
			buf.WriteString("0")
		} else {
			buf.WriteString(string(v.num))
		}
	case KindString:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
