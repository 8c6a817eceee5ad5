// Package model defines the diabetes prediction form: the eight measurement
// fields, the FormState that holds what the user typed so far, and the
// renderer-facing FormModel (labels, helper text, numeric hints) built from the
// prediction service contract. FormState slots start unset and only ever move
// to a parsed number, which may be NaN when the raw text did not parse.
// Validation rules expose canonical identifiers (min/max, step) with string
// parameters so renderers can map them onto HTML attributes without
// sacrificing deterministic JSON snapshots.
package model
