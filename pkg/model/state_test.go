package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-predictform/pkg/model"
)

func TestFormState_StartsUnset(t *testing.T) {
	state := model.NewFormState()

	if state.Complete() {
		t.Fatalf("expected fresh state to be incomplete")
	}
	if diff := cmp.Diff(model.FieldNames(), state.Missing()); diff != "" {
		t.Fatalf("missing fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFormState_SetLeavesOtherFieldsUntouched(t *testing.T) {
	for i, name := range model.FieldNames() {
		state := model.NewFormState()
		for j, other := range model.FieldNames() {
			if err := state.Set(other, model.Number(float64(j))); err != nil {
				t.Fatalf("seed %s: %v", other, err)
			}
		}
		before := state.Values()

		if err := state.Set(name, model.Number(100+float64(i))); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}

		after := state.Values()
		for _, other := range model.FieldNames() {
			if other == name {
				continue
			}
			if before[string(other)] != after[string(other)] {
				t.Fatalf("changing %s altered %s: %q -> %q", name, other, before[string(other)], after[string(other)])
			}
		}
	}
}

func TestFormState_NaNCountsAsSet(t *testing.T) {
	state := model.NewFormState()
	for _, name := range model.FieldNames() {
		_ = state.Set(name, model.ParseNumber("not a number"))
	}

	if !state.Complete() {
		t.Fatalf("NaN values should satisfy the completeness check")
	}
	if !state.Get(model.FieldAge).IsNaN() {
		t.Fatalf("expected NaN for unparseable input")
	}
}

func TestFormState_SetUnknownField(t *testing.T) {
	state := model.NewFormState()
	if err := state.Set("weight", model.Number(1)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if len(state.Missing()) != model.FieldCount {
		t.Fatalf("unknown field must not change state")
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want float64
		nan  bool
	}{
		"integer":           {raw: "6", want: 6},
		"decimal":           {raw: "0.627", want: 0.627},
		"padded":            {raw: "  33.6 ", want: 33.6},
		"negative":          {raw: "-1", want: -1},
		"explicit plus":     {raw: "+72", want: 72},
		"leading dot":       {raw: ".5", want: 0.5},
		"trailing dot":      {raw: "7.", want: 7},
		"exponent":          {raw: "1.5e2", want: 150},
		"trailing text":     {raw: "12abc", want: 12},
		"unit suffix":       {raw: "3.5kg", want: 3.5},
		"dangling exponent": {raw: "4e", want: 4},
		"dangling sign":     {raw: "4e+", want: 4},
		"hex reads zero":    {raw: "0x1A", want: 0},
		"second dot":        {raw: "1.2.3", want: 1.2},
		"tab and newline":   {raw: "\t\n25", want: 25},
		"empty":             {raw: "", nan: true},
		"garbage":           {raw: "abc", nan: true},
		"lone dot":          {raw: ".", nan: true},
		"lone sign":         {raw: "-", nan: true},
		"inf is not a word": {raw: "inf", nan: true},
		"nan literal":       {raw: "NaN", nan: true},
		"inner space":       {raw: "- 1", nan: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			value := model.ParseNumber(tc.raw)
			if !value.IsSet() {
				t.Fatalf("parsed values are always set")
			}
			got, _ := value.Float()
			if tc.nan {
				if !math.IsNaN(got) {
					t.Fatalf("expected NaN, got %v", got)
				}
				return
			}
			if got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseNumber_Infinity(t *testing.T) {
	cases := map[string]int{
		"Infinity":     1,
		"+Infinity":    1,
		"-Infinity":    -1,
		" Infinityish": 1,
		"1e400":        1,
		"-1e400":       -1,
	}
	for raw, sign := range cases {
		value := model.ParseNumber(raw)
		got, _ := value.Float()
		if !math.IsInf(got, sign) {
			t.Fatalf("parse %q: want infinity with sign %d, got %v", raw, sign, got)
		}
		if again, _ := model.ParseNumber(value.String()).Float(); again != got {
			t.Fatalf("display form %q of %q does not read back", value.String(), raw)
		}
	}
}

func TestValue_JSON(t *testing.T) {
	payload := map[string]model.Value{
		"unset": model.Unset(),
		"nan":   model.Number(math.NaN()),
		"num":   model.Number(148),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"nan":null,"num":148,"unset":""}`
	if string(data) != want {
		t.Fatalf("want %s, got %s", want, data)
	}

	var decoded map[string]model.Value
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["unset"].IsSet() {
		t.Fatalf("expected unset to round trip")
	}
	if !decoded["nan"].IsNaN() {
		t.Fatalf("expected null to decode as NaN")
	}
	if got, _ := decoded["num"].Float(); got != 148 {
		t.Fatalf("expected 148, got %v", got)
	}
}

func TestParseFieldName(t *testing.T) {
	name, err := model.ParseFieldName("bloodPressure")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if name != model.FieldBloodPressure {
		t.Fatalf("unexpected field %q", name)
	}
	if _, err := model.ParseFieldName("BloodPressure"); err == nil {
		t.Fatalf("expected field names to match exactly")
	}
}
