// Package discovery finds the hosted applications that match the operator's
// target domains and gathers what the backup needs to know about each one.
package discovery

import (
	"regexp"
	"strings"

	"github.com/vulnverified/sitevault/internal/engine"
)

var (
	schemeRe = regexp.MustCompile(`(?i)https?://`)
	domainRe = regexp.MustCompile(`^([a-z0-9-]+\.)+[a-z]{2,}$`)

	separators = strings.NewReplacer(
		"/", " ",
		",", " ",
		";", " ",
		"|", " ",
		"\t", " ",
		"\r", " ",
	)
)

// NormalizeDomains turns free-form pasted text into the target set. Schemes,
// paths, separators, casing and a leading "www." are discarded; anything
// that is not shaped like a domain is dropped.
func NormalizeDomains(text string) (engine.TargetSet, error) {
	text = schemeRe.ReplaceAllString(text, " ")
	text = separators.Replace(text)

	set := make(engine.TargetSet)
	for _, tok := range strings.Fields(text) {
		tok = strings.ToLower(tok)
		if !domainRe.MatchString(tok) {
			continue
		}
		tok = strings.TrimPrefix(tok, "www.")
		// "www.io" would otherwise leave a bare TLD behind.
		if !domainRe.MatchString(tok) {
			continue
		}
		set[tok] = struct{}{}
	}

	if len(set) == 0 {
		return nil, engine.ErrNoTargets
	}
	return set, nil
}

// CanonicalDomain lowercases a domain and strips a leading "www.".
func CanonicalDomain(domain string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
}
