// Package mine generates and dedupes ranked URL candidates for an entity.
package mine

import (
	"net/url"
	"strings"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
)

// Blacklist matches hostnames against configured noise-domain lists by
// exact or suffix equality on the bare hostname.
type Blacklist struct {
	directories  []string
	social       []string
	marketplaces []string
}

// NewBlacklist builds a Blacklist from configuration.
func NewBlacklist(cfg config.DomainsConfig) *Blacklist {
	return &Blacklist{
		directories:  cfg.Directories,
		social:       cfg.Social,
		marketplaces: cfg.Marketplaces,
	}
}

// Class returns the noise class of a hostname, or ClassUnknown when the
// host is not blacklisted.
func (b *Blacklist) Class(host string) model.SiteClass {
	host = BareHost(host)
	switch {
	case matchesAny(host, b.directories):
		return model.ClassDirectory
	case matchesAny(host, b.social):
		return model.ClassSocial
	case matchesAny(host, b.marketplaces):
		return model.ClassMarketplace
	default:
		return model.ClassUnknown
	}
}

// Blocked reports whether the host belongs to any noise list.
func (b *Blacklist) Blocked(host string) bool {
	return b.Class(host) != model.ClassUnknown
}

func matchesAny(host string, list []string) bool {
	for _, d := range list {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// BareHost strips scheme, path, port, and a leading "www." from a URL
// or hostname.
func BareHost(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Hostname() != "" {
			s = u.Hostname()
		}
	} else if i := strings.IndexAny(s, "/:"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "www.")
}

// Known multi-label public suffixes seen in Italian business data.
var secondLevelSuffixes = map[string]bool{
	"co.uk": true, "com.au": true, "co.jp": true, "com.br": true,
	"edu.it": true, "gov.it": true,
}

// RootDomain reduces a URL or hostname to its registrable domain.
func RootDomain(raw string) string {
	host := BareHost(raw)
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}
	tail2 := strings.Join(parts[len(parts)-2:], ".")
	if secondLevelSuffixes[tail2] && len(parts) >= 3 {
		return strings.Join(parts[len(parts)-3:], ".")
	}
	return tail2
}
