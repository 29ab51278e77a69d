package service

import "strings"

// CleanText collapses every run of whitespace to a single space and trims
// the result.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
