// Package controller owns the interaction state of the prediction form: the
// field values, the submission lifecycle, the result modal and the error
// alert. Surfaces (web page, terminal session) translate user events into
// Controller calls and render Snapshots.
package controller
