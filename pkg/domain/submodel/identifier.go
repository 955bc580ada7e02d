package submodel

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeID returns the URL path form of a submodel id (base64url, unpadded).
func EncodeID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeID reverses EncodeID. Padded tokens are accepted as well.
func DecodeID(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrBadRequest)
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return "", fmt.Errorf("%w: identifier %q is not base64url encoded", ErrBadRequest, token)
	}

	if len(raw) == 0 {
		return "", fmt.Errorf("%w: empty identifier", ErrBadRequest)
	}

	return string(raw), nil
}
