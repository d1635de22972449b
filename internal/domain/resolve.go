package domain

import (
	"fmt"
	"strings"
)

// DefaultAliases redirects known Northern Ireland spellings to the canonical
// file name.
var DefaultAliases = map[string]string{
	"N_Ireland":        "Northern_Ireland",
	"Northern_Ireland": "Northern_Ireland",
}

// Resolver builds candidate URLs for a combination.
type Resolver struct {
	base    string
	catalog *Catalog
	aliases map[string]string
}

// NewResolver creates a Resolver. A nil alias map disables alias fallbacks.
func NewResolver(baseURL string, catalog *Catalog, aliases map[string]string) *Resolver {
	a := make(map[string]string, len(aliases))
	for k, v := range aliases {
		a[k] = v
	}
	return &Resolver{
		base:    strings.TrimRight(baseURL, "/"),
		catalog: catalog,
		aliases: a,
	}
}

// Candidates returns the URLs to try for a region and parameter key, in the
// order they should be attempted:
//
//  1. <base>/<path>/<region>.txt
//  2. <base>/<path>/<region with spaces as underscores>.txt
//  3. <base>/<key>/date/<region>.txt
//  4. <base>/<key>/date/<region with spaces as underscores>.txt
//  5. <base>/<path>/<canonical>.txt, only for codes in the alias table
//
// Duplicates keep their first position. Entries that need a path fragment are
// omitted when the key has none.
func (r *Resolver) Candidates(regionCode, paramKey string) []string {
	path, _ := r.catalog.Path(paramKey)
	under := underscored(regionCode)

	urls := []string{
		r.url(path, regionCode),
		r.url(path, under),
		r.url(paramKey+"/date", regionCode),
		r.url(paramKey+"/date", under),
	}
	if canonical, ok := r.aliases[regionCode]; ok {
		urls = append(urls, r.url(path, canonical))
	}
	return dedupe(urls)
}

func (r *Resolver) url(path, file string) string {
	if path == "" || file == "" || strings.HasPrefix(path, "/date") {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s.txt", r.base, path, file)
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
