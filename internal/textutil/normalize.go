package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize returns s in Unicode normalization form C.
func Normalize(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// Fold returns the NFC, case-folded form of s for caseless comparisons.
func Fold(s string) string {
	return folder.String(Normalize(strings.TrimSpace(s)))
}

// EqualFold reports whether a and b are equal after trimming, NFC
// normalization and Unicode case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
