package ai

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
)

var ErrNoCredentials = errors.New("no credentials configured")

var separator = regexp.MustCompile(`[,\n]+`)

// ParsePool splits raw on commas and newlines, trims every entry and drops the
// empty ones. An empty result is ErrNoCredentials.
func ParsePool(raw string) ([]Token, error) {
	tokens := make([]Token, 0)
	for _, v := range separator.Split(raw, -1) {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		tokens = append(tokens, Token{Token: v, Index: len(tokens)})
	}
	if len(tokens) == 0 {
		return nil, ErrNoCredentials
	}
	return tokens, nil
}

// LoadPool resolves src and parses the result. It is called once per dispatch
// so configuration changes apply without a restart.
func LoadPool(src Source) ([]Token, error) {
	if src == nil {
		return nil, ErrNoCredentials
	}
	raw, _ := src.Lookup()
	return ParsePool(raw)
}

// Intn returns a uniform integer in [0, n).
type Intn func(n int) int

// Shuffle returns a random permutation of tokens; the input is not modified.
func Shuffle(tokens []Token, intn Intn) []Token {
	if intn == nil {
		intn = rand.IntN
	}
	ret := make([]Token, len(tokens))
	copy(ret, tokens)
	for i := len(ret) - 1; i > 0; i-- {
		j := intn(i + 1)
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret
}
