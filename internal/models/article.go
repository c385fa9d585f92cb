package models

import "strings"

// HasImage reports whether the upstream supplied any image URL.
func (a *Article) HasImage() bool {
	return strings.TrimSpace(a.ImageURL) != ""
}
