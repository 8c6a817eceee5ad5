// Package orchestrator wires the contract → form model → renderer pipeline and
// builds controllers bound to a predictor, so surfaces (web, terminal, CLI)
// share one entry point.
package orchestrator
