package predict

import (
	"encoding/json"

	"github.com/goliatone/go-predictform/pkg/model"
)

// Request is the JSON body sent to the prediction endpoint. Field order
// matches the form.
type Request struct {
	Pregnancies      model.Value `json:"pregnancies"`
	Glucose          model.Value `json:"glucose"`
	BloodPressure    model.Value `json:"bloodPressure"`
	SkinThickness    model.Value `json:"skinThickness"`
	Insulin          model.Value `json:"insulin"`
	BMI              model.Value `json:"bmi"`
	PedigreeFunction model.Value `json:"pedigreeFunction"`
	Age              model.Value `json:"age"`
}

// NewRequest copies the eight values out of state.
func NewRequest(state model.FormState) Request {
	return Request{
		Pregnancies:      state.Get(model.FieldPregnancies),
		Glucose:          state.Get(model.FieldGlucose),
		BloodPressure:    state.Get(model.FieldBloodPressure),
		SkinThickness:    state.Get(model.FieldSkinThickness),
		Insulin:          state.Get(model.FieldInsulin),
		BMI:              state.Get(model.FieldBMI),
		PedigreeFunction: state.Get(model.FieldPedigreeFunction),
		Age:              state.Get(model.FieldAge),
	}
}

// Value returns the request value for name.
func (r Request) Value(name model.FieldName) model.Value {
	switch name {
	case model.FieldPregnancies:
		return r.Pregnancies
	case model.FieldGlucose:
		return r.Glucose
	case model.FieldBloodPressure:
		return r.BloodPressure
	case model.FieldSkinThickness:
		return r.SkinThickness
	case model.FieldInsulin:
		return r.Insulin
	case model.FieldBMI:
		return r.BMI
	case model.FieldPedigreeFunction:
		return r.PedigreeFunction
	case model.FieldAge:
		return r.Age
	default:
		return model.Unset()
	}
}

// Response carries the diagnosis and the raw body it was read from.
type Response struct {
	Diabetic bool
	Raw      json.RawMessage
}

// ParseResponse reads the diagnosis out of a JSON body. The diabetic key is
// read with JavaScript truthiness: a missing key, false, 0, "" and null are
// all false; everything else is true. Bodies that are valid JSON but not an
// object carry no key and read as false.
func ParseResponse(body []byte) (Response, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Response{}, &DecodeError{Body: body, Err: err}
	}
	resp := Response{Raw: append(json.RawMessage(nil), body...)}
	if object, ok := decoded.(map[string]any); ok {
		resp.Diabetic = truthy(object["diabetic"])
	}
	return resp, nil
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case float64:
		return typed != 0
	case string:
		return typed != ""
	default:
		return true
	}
}
