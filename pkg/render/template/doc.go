// Package template defines the template engine seam page renderers use.
package template
