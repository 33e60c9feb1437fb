package catalog

import "golang.org/x/text/cases"

// nameKey is the form country names are compared and indexed by.
// It applies full Unicode case folding, so "Österreich" and "ÖSTERREICH" share a key.
func nameKey(name string) string {
	return cases.Fold().String(name)
}
