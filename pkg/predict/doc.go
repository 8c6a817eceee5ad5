// Package predict talks to the remote prediction service. It encodes the eight
// form values as a JSON body, posts them to {base}/predict and reads the
// diagnosis back, classifying every failure into a closed set of categories.
package predict
