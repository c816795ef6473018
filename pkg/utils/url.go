package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// articleIDLength is the number of hex characters kept from the URL digest.
const articleIDLength = 16

// HashURL creates a SHA256 hash of a URL string.
func HashURL(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(h[:])
}

// ArticleID derives the stable article identity from its canonical URL.
func ArticleID(canonicalURL string) string {
	return HashURL(canonicalURL)[:articleIDLength]
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
// Protocol-relative references ("//host/x") take the scheme of base.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relative = strings.TrimSpace(relative)
	if relative == "" {
		return "", nil
	}
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}
