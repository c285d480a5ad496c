package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Default noise-domain lists for the Italian business web. Overridable
// via config or a standalone YAML list file.
var (
	DefaultDirectoryDomains = []string{
		"paginegialle.it", "paginebianche.it", "virgilio.it", "misterimprese.it",
		"informazione-aziende.it", "reportaziende.it", "ufficiocamerale.it",
		"registroimprese.it", "cylex.it", "kompass.com", "europages.it",
		"europages.com", "yelp.it", "yelp.com", "tripadvisor.it", "tripadvisor.com",
		"trovaaziende.it", "aziende.it", "infoimprese.it", "icribis.com",
		"wikipedia.org", "guidafinestra.it", "prontoimprese.it",
	}
	DefaultSocialDomains = []string{
		"facebook.com", "instagram.com", "linkedin.com", "twitter.com", "x.com",
		"youtube.com", "tiktok.com", "pinterest.com", "pinterest.it",
	}
	DefaultMarketplaceDomains = []string{
		"amazon.it", "amazon.com", "ebay.it", "ebay.com", "subito.it",
		"etsy.com", "alibaba.com", "aliexpress.com", "manomano.it",
	}
	DefaultParkedIndicators = []string{
		"domain is for sale", "dominio in vendita", "buy this domain",
		"acquista questo dominio", "parked domain", "dominio parcheggiato",
		"this domain has expired", "registra questo dominio", "sedo.com",
		"godaddy", "coming soon", "sito in costruzione", "under construction",
	}
)

// domainListFile is the on-disk shape of a noise-domain list file.
type domainListFile struct {
	Directories      []string `yaml:"directories"`
	Social           []string `yaml:"social"`
	Marketplaces     []string `yaml:"marketplaces"`
	ParkedIndicators []string `yaml:"parked_indicators"`
}

// loadListFile replaces the inline lists with the contents of ListFile.
// Empty sections in the file keep the inline defaults.
func (d *DomainsConfig) loadListFile() error {
	raw, err := os.ReadFile(d.ListFile)
	if err != nil {
		return eris.Wrapf(err, "config: read domain list %s", d.ListFile)
	}

	var f domainListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return eris.Wrapf(err, "config: parse domain list %s", d.ListFile)
	}

	if len(f.Directories) > 0 {
		d.Directories = f.Directories
	}
	if len(f.Social) > 0 {
		d.Social = f.Social
	}
	if len(f.Marketplaces) > 0 {
		d.Marketplaces = f.Marketplaces
	}
	if len(f.ParkedIndicators) > 0 {
		d.ParkedIndicators = f.ParkedIndicators
	}
	return nil
}
