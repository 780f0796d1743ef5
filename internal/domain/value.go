package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is the tagged union at the ingestion boundary: source columns hold
// either a JSON number or a string that may be numeric, annotated with a
// quality mark, or a missing-data sentinel. Coercion is explicit, in
// Float, never implicit at decode time.
type Value struct {
	num    float64
	text   string
	isNum  bool
	isText bool
}

// NumberValue wraps an already-numeric source value.
func NumberValue(f float64) Value {
	return Value{num: f, isNum: true}
}

// TextValue wraps a textual source value.
func TextValue(s string) Value {
	return Value{text: s, isText: true}
}

// IsZero reports whether the value was absent from the source entirely.
func (v Value) IsZero() bool {
	return !v.isNum && !v.isText
}

// UnmarshalJSON accepts a number, a string, or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = Value{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*v = TextValue(text)
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*v = NumberValue(num)
	return nil
}

// missingMarks are the documented sentinels for "no measurement": JMA table
// marks plus the UNK convention seen in digitized series.
var missingMarks = map[string]bool{
	"":    true,
	"//":  true,
	"///": true,
	"×":   true,
	"-":   true,
	"UNK": true,
}

// qualityMarks are trailing JMA annotations on otherwise-numeric values:
// "]" incomplete data, ")" quasi-normal, "#" suspect. The numeric part is kept.
const qualityMarks = "])#"

// Float coerces the value to a number. Missing sentinels and uncoercible
// text fail with ErrUnparseableValue; the caller excludes and counts the
// record.
func (v Value) Float() (float64, error) {
	if v.isNum {
		return v.num, nil
	}

	s := strings.TrimSpace(v.text)
	if !v.isText || missingMarks[strings.ToUpper(strings.TrimSpace(strings.TrimRight(s, qualityMarks)))] {
		return 0, fmt.Errorf("%w: missing measurement %q", ErrUnparseableValue, v.text)
	}

	s = strings.TrimSpace(strings.TrimRight(s, qualityMarks))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableValue, v.text)
	}
	return f, nil
}

// String reports the raw source form, for logs and error messages.
func (v Value) String() string {
	switch {
	case v.isNum:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case v.isText:
		return v.text
	default:
		return "<unset>"
	}
}
