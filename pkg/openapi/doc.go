// Package openapi loads the OpenAPI contract of the prediction service and
// derives the form model from the request body of its predict operation.
// kin-openapi types stay inside this package; callers see Document, Contract
// and model.FormModel.
package openapi
