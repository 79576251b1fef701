package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is a node in the two-level taxonomy used to classify listings.
// A category is either a root (no parent) or a direct child of a root;
// deeper nesting is not modeled.
type Category struct {
	ID          string
	Name        string
	Description *string
	Slug        string
	ParentID    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRoot reports whether the category sits at the top of the hierarchy.
func (c *Category) IsRoot() bool {
	return c != nil && (c.ParentID == nil || *c.ParentID == "")
}

// CategoryHierarchy is the resolved breadcrumb for a category.
type CategoryHierarchy struct {
	Self   Category
	Parent *Category
}

var slugStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe slug from a category name: lowercase, diacritics
// stripped, non-alphanumeric runs collapsed to a single hyphen, leading and
// trailing hyphens trimmed. Pure and deterministic.
func Slugify(name string) string {
	stripped, _, err := transform.String(slugStripper, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	b.Grow(len(stripped))
	lastHyphen := true
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
