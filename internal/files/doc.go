// Package files discovers CMS public use files in a data directory and
// classifies them by category from their file names.
package files
