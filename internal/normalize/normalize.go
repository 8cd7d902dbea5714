// Package normalize canonicalizes raw candidate strings into comparable
// registrable-domain keys and filters obvious noise before validation.
package normalize

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"domaincheck/pkg/domain"
	"domaincheck/pkg/serrors"
)

// defaultDenylist holds registrable domains that can never be a company's
// own web property: social networks, platforms, CDNs, government and
// tooling hosts that discovery agents commonly drag in.
var defaultDenylist = []string{ //nolint: gochecknoglobals
	"facebook.com", "twitter.com", "x.com", "instagram.com", "threads.net",
	"linkedin.com", "pinterest.com", "youtube.com", "youtu.be", "tiktok.com",
	"snapchat.com", "whatsapp.com", "quora.com", "reddit.com", "vimeo.com",
	"google.com", "goo.gl", "googleapis.com", "google-analytics.com",
	"github.com", "apple.com", "amazon.com", "adobe.com", "adobe.io",
	"wordpress.org", "mozilla.org", "cloudflare.net", "cloudflare.com",
	"onetrust.com", "cookiepedia.co.uk", "jwt.io", "sec.gov",
}

// Normalizer turns raw upstream strings into domain.Candidate keys.
// The zero value is not usable; construct with New.
type Normalizer struct {
	deny map[string]struct{}
}

// New builds a Normalizer whose denylist is the built-in set extended with
// the provided registrable domains.
func New(extraDeny ...string) *Normalizer {
	deny := make(map[string]struct{}, len(defaultDenylist)+len(extraDeny))
	for _, d := range defaultDenylist {
		deny[d] = struct{}{}
	}
	for _, d := range extraDeny {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			deny[d] = struct{}{}
		}
	}

	return &Normalizer{deny: deny}
}

// Normalize returns the canonical registrable-domain key for a raw
// candidate string, or a BAD_REQUEST error when the value is blank, a
// placeholder, unparsable, or denylisted.
//
// Canonicalization rules:
//   - strip scheme, path, query, fragment, port and trailing slash
//   - lower-case the host
//   - reduce the host to its registrable domain (second-level label plus
//     public suffix), so "www.shop.Example.co.uk/" becomes "example.co.uk"
//
// Normalize is a pure function; deduplication is the caller's concern
// (see Dedupe).
func (n *Normalizer) Normalize(raw string) (domain.Candidate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "." {
		return "", serrors.With(serrors.ErrBadRequest, "empty candidate")
	}

	host := hostOf(raw)
	if host == "" || !strings.Contains(host, ".") {
		return "", serrors.With(serrors.ErrBadRequest, "not a domain: %q", raw)
	}
	if net.ParseIP(host) != nil {
		return "", serrors.With(serrors.ErrBadRequest, "IP address is not a candidate: %q", raw)
	}

	reg, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrBadRequest, err, "no registrable domain in %q", raw)
	}

	if _, denied := n.deny[reg]; denied {
		return "", serrors.With(serrors.ErrBadRequest, "denylisted domain: %s", reg)
	}

	return domain.Candidate(reg), nil
}

// Dedupe normalizes every raw value and returns the unique candidates in
// first-seen order. Rejected values are silently dropped; the caller logs
// counts, not individual rejects.
func (n *Normalizer) Dedupe(raws []string) []domain.Candidate {
	seen := make(domain.CandidateSet, len(raws))
	out := make([]domain.Candidate, 0, len(raws))
	for _, raw := range raws {
		c, err := n.Normalize(raw)
		if err != nil {
			continue
		}
		if seen.Contains(c) {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	return out
}

// SameSite reports whether two hosts share a registrable domain. It is used
// to classify redirects: landing on another host of the same site is fine,
// landing on a different registrable domain is not.
func SameSite(a, b string) bool {
	ra, errA := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(hostOf(a)))
	rb, errB := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(hostOf(b)))
	if errA != nil || errB != nil {
		return false
	}

	return ra == rb
}

// hostOf extracts the bare lower-cased host from a raw string that may or
// may not carry a scheme, path or port.
func hostOf(raw string) string {
	s := raw
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	return host
}
