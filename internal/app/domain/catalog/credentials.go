package catalog

import "strings"

// Credentials is the immutable credential set for the Product Advertising
// API. It is constructed once at startup and injected into the client; tests
// supply fake values without touching process environment.
type Credentials struct {
	AccessKey   string
	SecretKey   string
	PartnerTag  string
	Marketplace string
}

// Complete reports whether all fields required for signing are present.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.PartnerTag) != ""
}

// marketplaceEndpoint maps a marketplace domain to its signing region and
// API host. Kept as data so new marketplaces are an entry, not a branch.
type marketplaceEndpoint struct {
	Region string
	Host   string
}

var marketplaceEndpoints = map[string]marketplaceEndpoint{
	"www.amazon.com":    {Region: "us-east-1", Host: "webservices.amazon.com"},
	"www.amazon.ca":     {Region: "us-east-1", Host: "webservices.amazon.ca"},
	"www.amazon.com.mx": {Region: "us-east-1", Host: "webservices.amazon.com.mx"},
	"www.amazon.com.br": {Region: "us-east-1", Host: "webservices.amazon.com.br"},
	"www.amazon.co.uk":  {Region: "eu-west-1", Host: "webservices.amazon.co.uk"},
	"www.amazon.de":     {Region: "eu-west-1", Host: "webservices.amazon.de"},
	"www.amazon.fr":     {Region: "eu-west-1", Host: "webservices.amazon.fr"},
	"www.amazon.it":     {Region: "eu-west-1", Host: "webservices.amazon.it"},
	"www.amazon.es":     {Region: "eu-west-1", Host: "webservices.amazon.es"},
	"www.amazon.in":     {Region: "eu-west-1", Host: "webservices.amazon.in"},
	"www.amazon.co.jp":  {Region: "us-west-2", Host: "webservices.amazon.co.jp"},
	"www.amazon.com.au": {Region: "us-west-2", Host: "webservices.amazon.com.au"},
	"www.amazon.sg":     {Region: "us-west-2", Host: "webservices.amazon.sg"},
}

// Region returns the signing region derived from the marketplace,
// defaulting to us-east-1.
func (c Credentials) Region() string {
	if ep, ok := marketplaceEndpoints[strings.ToLower(strings.TrimSpace(c.Marketplace))]; ok {
		return ep.Region
	}
	return "us-east-1"
}

// Host returns the API host derived from the marketplace, defaulting to the
// US endpoint.
func (c Credentials) Host() string {
	if ep, ok := marketplaceEndpoints[strings.ToLower(strings.TrimSpace(c.Marketplace))]; ok {
		return ep.Host
	}
	return "webservices.amazon.com"
}

// MarketplaceID returns the marketplace domain sent in request payloads.
func (c Credentials) MarketplaceID() string {
	m := strings.ToLower(strings.TrimSpace(c.Marketplace))
	if m == "" {
		return "www.amazon.com"
	}
	return m
}
