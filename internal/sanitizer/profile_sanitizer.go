// Package sanitizer strips markup from free-text profile fields before
// they are stored, so marketing-site clients can render them verbatim.
package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSanitizer removes all HTML from user-supplied profile text
type ProfileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer creates a sanitizer with the strict policy: no
// elements or attributes survive, only text content.
func NewProfileSanitizer() *ProfileSanitizer {
	return &ProfileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean strips markup and trims surrounding whitespace. Entities escaped
// by the policy are unescaped back to plain text, since the result is
// stored as text, not rendered as HTML.
func (s *ProfileSanitizer) Clean(input string) string {
	cleaned := s.policy.Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
