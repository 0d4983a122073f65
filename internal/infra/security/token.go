package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Session tokens are opaque server-side handles, so 32 bytes of entropy is
// the only property they need.
const defaultTokenBytes = 32

// RandomTokenGenerator produces URL-safe opaque bearer tokens for the
// session store.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = defaultTokenBytes
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
