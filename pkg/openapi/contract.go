package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-predictform/pkg/model"
)

const (
	// PredictOperationID is the operationId the contract must declare.
	PredictOperationID = "predict"

	extensionNamespace = "x-predictform"
)

// Contract is a parsed and validated prediction service document.
type Contract struct {
	doc       Document
	spec      *openapi3.T
	operation Operation
	request   *openapi3.Schema
}

// Load reads and parses the document behind src.
func Load(ctx context.Context, src Source) (*Contract, error) {
	doc, err := LoadDocument(ctx, src)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, doc)
}

// LoadEmbedded parses the bundled prediction contract.
func LoadEmbedded(ctx context.Context) (*Contract, error) {
	return Load(ctx, SourceEmbedded())
}

// Parse validates doc and locates the predict operation and its JSON request
// schema.
func Parse(ctx context.Context, doc Document) (*Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi parser: validate: %w", err)
	}

	contract := &Contract{doc: doc, spec: spec}
	if err := contract.locate(); err != nil {
		return nil, err
	}
	return contract, nil
}

func (c *Contract) locate() error {
	if c.spec.Paths == nil {
		return ErrOperationNotFound
	}
	for path, item := range c.spec.Paths.Map() {
		if item == nil || item.Post == nil {
			continue
		}
		if item.Post.OperationID != PredictOperationID {
			continue
		}
		schema := requestSchema(item.Post.RequestBody)
		if schema == nil {
			return fmt.Errorf("openapi parser: operation %q has no JSON request body", PredictOperationID)
		}
		c.operation = Operation{
			ID:          item.Post.OperationID,
			Method:      "POST",
			Path:        path,
			Summary:     item.Post.Summary,
			Description: item.Post.Description,
		}
		c.request = schema
		return nil
	}
	return ErrOperationNotFound
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	mt, ok := body.Value.Content["application/json"]
	if !ok || mt == nil || mt.Schema == nil {
		return nil
	}
	return mt.Schema.Value
}

// Document returns the wrapped source document.
func (c *Contract) Document() Document {
	return c.doc
}

// Operation returns the predict operation metadata.
func (c *Contract) Operation() Operation {
	return c.operation
}

// Endpoint returns the HTTP method and path of the predict operation.
func (c *Contract) Endpoint() (method, path string) {
	return c.operation.Method, c.operation.Path
}

// Form builds the form model from the request body. Fields follow the order
// of the schema's required list; every form field must be declared.
func (c *Contract) Form() (model.FormModel, error) {
	form := model.FormModel{
		OperationID: c.operation.ID,
		Endpoint:    c.operation.Path,
		Method:      c.operation.Method,
		Summary:     c.operation.Summary,
		Description: c.operation.Description,
	}

	required := make(map[string]struct{}, len(c.request.Required))
	order := make([]string, 0, len(c.request.Properties))
	for _, name := range c.request.Required {
		required[name] = struct{}{}
		order = append(order, name)
	}
	for _, name := range model.FieldNames() {
		if _, ok := required[string(name)]; !ok {
			order = append(order, string(name))
		}
	}

	seen := make(map[model.FieldName]struct{}, model.FieldCount)
	for _, raw := range order {
		name, err := model.ParseFieldName(raw)
		if err != nil {
			return model.FormModel{}, fmt.Errorf("%w: %v", ErrFieldMismatch, err)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		ref, ok := c.request.Properties[raw]
		if !ok || ref == nil || ref.Value == nil {
			return model.FormModel{}, fmt.Errorf("%w: property %q not declared", ErrFieldMismatch, raw)
		}
		_, isRequired := required[raw]
		field, err := buildField(name, ref.Value, isRequired)
		if err != nil {
			return model.FormModel{}, err
		}
		form.Fields = append(form.Fields, field)
		seen[name] = struct{}{}
	}

	return form, nil
}

func buildField(name model.FieldName, schema *openapi3.Schema, required bool) (model.Field, error) {
	field := model.Field{
		Name:        name,
		Required:    required,
		Label:       strings.TrimSpace(schema.Title),
		Description: strings.Join(strings.Fields(schema.Description), " "),
	}
	if field.Label == "" {
		field.Label = string(name)
	}

	switch firstSchemaType(schema.Type) {
	case "number":
		field.Type = model.FieldTypeNumber
	case "integer":
		field.Type = model.FieldTypeInteger
	default:
		return model.Field{}, fmt.Errorf("%w: property %q must be numeric", ErrFieldMismatch, name)
	}

	if schema.Min != nil {
		field.Validations = append(field.Validations, numericRule(model.ValidationRuleMin, *schema.Min))
	}
	if schema.Max != nil {
		field.Validations = append(field.Validations, numericRule(model.ValidationRuleMax, *schema.Max))
	}

	hints := extensionHints(schema.Extensions)
	if step, ok := hints["step"]; ok {
		field.Validations = append(field.Validations, model.ValidationRule{
			Kind:   model.ValidationRuleStep,
			Params: map[string]string{"value": step},
		})
		delete(hints, "step")
	}
	if placeholder, ok := hints["placeholder"]; ok {
		field.Placeholder = placeholder
		delete(hints, "placeholder")
	}
	if len(hints) > 0 {
		field.Metadata = hints
	}
	return field, nil
}

func numericRule(kind string, value float64) model.ValidationRule {
	return model.ValidationRule{
		Kind:   kind,
		Params: map[string]string{"value": strconv.FormatFloat(value, 'f', -1, 64)},
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func extensionHints(raw map[string]any) map[string]string {
	value, ok := raw[extensionNamespace]
	if !ok {
		return nil
	}
	mapped, ok := value.(map[string]any)
	if !ok || len(mapped) == 0 {
		return nil
	}
	out := make(map[string]string, len(mapped))
	for key, val := range mapped {
		switch typed := val.(type) {
		case string:
			out[key] = typed
		case float64:
			out[key] = strconv.FormatFloat(typed, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(typed)
		}
	}
	return out
}

// ValidateRequest checks an outgoing payload against the request schema. The
// payload is round-tripped through JSON so it is validated exactly as it would
// be sent.
func (c *Contract) ValidateRequest(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("openapi: encode payload: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("openapi: decode payload: %w", err)
	}
	if err := c.request.VisitJSON(decoded); err != nil {
		return fmt.Errorf("openapi: request does not match contract: %w", err)
	}
	return nil
}
