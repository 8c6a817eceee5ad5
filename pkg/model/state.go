package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Value is a single FormState slot: either unset or a parsed number. A set
// value may hold NaN when the raw text could not be parsed; NaN still counts
// as set for completeness checks.
type Value struct {
	set    bool
	number float64
}

// Unset returns the sentinel held by every field before the first change.
func Unset() Value {
	return Value{}
}

// Number wraps a parsed number.
func Number(n float64) Value {
	return Value{set: true, number: n}
}

// ParseNumber reads the longest numeric prefix of raw the way a browser's
// parseFloat does: leading whitespace is skipped, trailing text is ignored,
// "Infinity" is accepted and overflow yields an infinity. Text without a
// numeric prefix yields NaN, never an error.
func ParseNumber(raw string) Value {
	text := strings.TrimLeftFunc(raw, isParseSpace)
	prefix := numericPrefix(text)
	if prefix == "" {
		return Number(math.NaN())
	}
	switch prefix {
	case "Infinity", "+Infinity":
		return Number(math.Inf(1))
	case "-Infinity":
		return Number(math.Inf(-1))
	}
	n, err := strconv.ParseFloat(prefix, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Number(math.NaN())
	}
	return Number(n)
}

func isParseSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// numericPrefix returns the leading decimal literal of s, including an
// optional sign, or "" when there is none.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		return s[:i+len("Infinity")]
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		fraction := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			fraction++
		}
		if digits > 0 || fraction > 0 {
			i = j
			digits += fraction
		}
	}
	if digits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			i = j
		}
	}
	return s[:i]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// IsSet reports whether the slot moved past the unset sentinel.
func (v Value) IsSet() bool {
	return v.set
}

// IsNaN reports whether the slot holds a number that failed to parse.
func (v Value) IsNaN() bool {
	return v.set && math.IsNaN(v.number)
}

// Float returns the stored number and whether the slot is set.
func (v Value) Float() (float64, bool) {
	return v.number, v.set
}

// String renders the value the way an input control would show it: empty for
// unset and NaN, shortest decimal form otherwise. Infinities use the form
// ParseNumber reads back.
func (v Value) String() string {
	switch {
	case !v.set || math.IsNaN(v.number):
		return ""
	case math.IsInf(v.number, 1):
		return "Infinity"
	case math.IsInf(v.number, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v.number, 'f', -1, 64)
}

// MarshalJSON encodes unset as "" (the form's sentinel), non-finite numbers
// as null, and everything else as a JSON number.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.set:
		return []byte(`""`), nil
	case math.IsNaN(v.number) || math.IsInf(v.number, 0):
		return []byte("null"), nil
	default:
		return json.Marshal(v.number)
	}
}

// UnmarshalJSON accepts the encodings produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch trimmed {
	case `""`:
		*v = Unset()
		return nil
	case "null":
		*v = Number(math.NaN())
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("model: decode value: %w", err)
	}
	*v = Number(n)
	return nil
}

// FormState is the in-memory record of the eight inputs. The zero value has
// every field unset. It is a value type; copies never share storage.
type FormState struct {
	values [FieldCount]Value
}

// NewFormState returns a state with all fields unset.
func NewFormState() FormState {
	return FormState{}
}

// Set stores value under name and leaves every other field untouched.
func (s *FormState) Set(name FieldName, value Value) error {
	idx := name.index()
	if idx < 0 {
		return fmt.Errorf("model: unknown field %q", name)
	}
	s.values[idx] = value
	return nil
}

// Get returns the value stored under name. Unknown names report unset.
func (s FormState) Get(name FieldName) Value {
	idx := name.index()
	if idx < 0 {
		return Unset()
	}
	return s.values[idx]
}

// Clone returns an independent copy of the state.
func (s FormState) Clone() FormState {
	return s
}

// Missing lists the fields still holding the unset sentinel, in display order.
func (s FormState) Missing() []FieldName {
	var missing []FieldName
	for i, value := range s.values {
		if !value.IsSet() {
			missing = append(missing, fieldOrder[i])
		}
	}
	return missing
}

// Complete reports whether every field moved past the unset sentinel.
func (s FormState) Complete() bool {
	for _, value := range s.values {
		if !value.IsSet() {
			return false
		}
	}
	return true
}

// Values returns the display string of every field keyed by name, suitable
// for pre-filling rendered controls.
func (s FormState) Values() map[string]string {
	out := make(map[string]string, FieldCount)
	for i, value := range s.values {
		out[string(fieldOrder[i])] = value.String()
	}
	return out
}

// MarshalJSON encodes the state as an object keyed by field name.
func (s FormState) MarshalJSON() ([]byte, error) {
	out := make(map[string]Value, FieldCount)
	for i, value := range s.values {
		out[string(fieldOrder[i])] = value
	}
	return json.Marshal(out)
}
