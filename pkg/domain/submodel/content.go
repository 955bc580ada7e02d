package submodel

import "fmt"

// Content is a read-time projection of a submodel document.
type Content string

const (
	// ContentFull is the entire document.
	ContentFull Content = "full"
	// ContentMetadata is the document without its submodel elements.
	ContentMetadata Content = "metadata"
	// ContentValue is the value-only view of the submodel elements.
	ContentValue Content = "value"
)

// ParseContent maps the "content" query parameter to a Content.
// An empty parameter selects the full document.
func ParseContent(s string) (Content, error) {
	switch s {
	case "", "normal", string(ContentFull):
		return ContentFull, nil
	case string(ContentMetadata):
		return ContentMetadata, nil
	case string(ContentValue):
		return ContentValue, nil
	default:
		return "", fmt.Errorf("%w: unsupported content %q (must be normal, metadata or value)", ErrBadRequest, s)
	}
}
