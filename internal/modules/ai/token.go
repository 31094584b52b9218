package ai

import "strings"

// Token is one API key from the credential pool. Index is its position in the
// pool as configured, before shuffling.
type Token struct {
	Token string
	Index int
}

// Suffix is the redacted form of the key used in logs and errors.
func (t Token) Suffix() string {
	return Redact(t.Token)
}

func (t Token) String() string {
	return t.Suffix()
}

// Redact keeps the last four characters of a key.
func Redact(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 4 {
		return "..." + strings.Repeat("*", len(key))
	}
	return "..." + key[len(key)-4:]
}
