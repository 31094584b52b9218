package tools

import "strings"

// FullURL joins baseURL and path segments with exactly one slash between them.
func FullURL(baseURL string, paths ...string) string {
	if baseURL == "" {
		return ""
	}
	ret := strings.TrimRight(baseURL, "/")
	for _, p := range paths {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		ret += "/" + p
	}
	return ret
}
