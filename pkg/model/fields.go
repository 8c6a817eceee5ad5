package model

import (
	"fmt"
	"strings"
)

// FieldName identifies one of the eight measurements collected by the form.
type FieldName string

const (
	FieldPregnancies      FieldName = "pregnancies"
	FieldGlucose          FieldName = "glucose"
	FieldBloodPressure    FieldName = "bloodPressure"
	FieldSkinThickness    FieldName = "skinThickness"
	FieldInsulin          FieldName = "insulin"
	FieldBMI              FieldName = "bmi"
	FieldPedigreeFunction FieldName = "pedigreeFunction"
	FieldAge              FieldName = "age"
)

// fieldOrder is the display and payload order.
var fieldOrder = [...]FieldName{
	FieldPregnancies,
	FieldGlucose,
	FieldBloodPressure,
	FieldSkinThickness,
	FieldInsulin,
	FieldBMI,
	FieldPedigreeFunction,
	FieldAge,
}

// FieldCount is the number of measurements the form collects.
const FieldCount = len(fieldOrder)

// FieldNames returns the recognised field names in display order.
func FieldNames() []FieldName {
	out := make([]FieldName, FieldCount)
	copy(out, fieldOrder[:])
	return out
}

// ParseFieldName resolves a raw name into a FieldName. Matching is exact, the
// same way input names are matched on the page.
func ParseFieldName(raw string) (FieldName, error) {
	name := FieldName(strings.TrimSpace(raw))
	if name.index() < 0 {
		return "", fmt.Errorf("model: unknown field %q", raw)
	}
	return name, nil
}

// Valid reports whether the name is one of the eight recognised fields.
func (n FieldName) Valid() bool {
	return n.index() >= 0
}

func (n FieldName) String() string {
	return string(n)
}

func (n FieldName) index() int {
	for i, candidate := range fieldOrder {
		if candidate == n {
			return i
		}
	}
	return -1
}
