package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidResponseValue is returned when a response is not a string,
// a number, a list of strings or null.
var ErrInvalidResponseValue = errors.New("valid_response must be a string, a number or a list of strings")

// ValueKind identifies which variant a ResponseValue holds.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueStrings
)

// ResponseValue is a respondent's answer: a string, a number or a list of
// strings. The zero value is null, which counts as unanswered.
type ResponseValue struct {
	kind ValueKind
	str  string
	num  float64
	list []string
}

// StringValue wraps a text answer.
func StringValue(s string) ResponseValue {
	return ResponseValue{kind: ValueString, str: s}
}

// NumberValue wraps a numeric answer.
func NumberValue(n float64) ResponseValue {
	return ResponseValue{kind: ValueNumber, num: n}
}

// StringsValue wraps a multiple-choice answer.
func StringsValue(items []string) ResponseValue {
	cp := make([]string, len(items))
	copy(cp, items)
	return ResponseValue{kind: ValueStrings, list: cp}
}

// Kind returns the variant held by v.
func (v ResponseValue) Kind() ValueKind { return v.kind }

// AsString returns the text answer and whether v holds one.
func (v ResponseValue) AsString() (string, bool) {
	return v.str, v.kind == ValueString
}

// AsNumber returns the numeric answer and whether v holds one.
func (v ResponseValue) AsNumber() (float64, bool) {
	return v.num, v.kind == ValueNumber
}

// AsStrings returns the list answer and whether v holds one.
func (v ResponseValue) AsStrings() ([]string, bool) {
	return v.list, v.kind == ValueStrings
}

// IsUnanswered reports whether v is null or the empty string.
func (v ResponseValue) IsUnanswered() bool {
	return v.kind == ValueNull || (v.kind == ValueString && v.str == "")
}

// IsDontKnow reports whether v is the "don't know" sentinel.
func (v ResponseValue) IsDontKnow() bool {
	return v.kind == ValueString && strings.EqualFold(v.str, DontKnowResponse)
}

// Flatten renders v as a single cell value: lists are joined with commas.
func (v ResponseValue) Flatten() any {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return v.num
	case ValueStrings:
		return strings.Join(v.list, ",")
	default:
		return nil
	}
}

// Equal reports whether two values hold the same answer.
func (v ResponseValue) Equal(o ResponseValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueString:
		return v.str == o.str
	case ValueNumber:
		return v.num == o.num
	case ValueStrings:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
	}
	return true
}

func (v ResponseValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueString:
		return json.Marshal(v.str)
	case ValueNumber:
		return json.Marshal(v.num)
	case ValueStrings:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

func (v *ResponseValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ErrInvalidResponseValue
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return ErrInvalidResponseValue
		}
		*v = ResponseValue{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrInvalidResponseValue
		}
		*v = StringValue(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return ErrInvalidResponseValue
		}
		if items == nil {
			items = []string{}
		}
		*v = ResponseValue{kind: ValueStrings, list: items}
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return ErrInvalidResponseValue
		}
		*v = NumberValue(n)
	}
	return nil
}
