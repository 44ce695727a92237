// Package endpoint builds the ordered list of candidate base URLs for a
// WooCommerce store and resolves logical resource paths against them.
//
// Different deployments of the same store expose the REST surface under
// different prefixes: permalink routing serves /wp-json/wc/v3 directly,
// while front-controller routing needs ?rest_route=. Hosts also vary
// between www and bare-domain forms. Declaring all plausible shapes up
// front lets the transport layer walk them in a fixed, cheap-to-expensive
// order without any per-store configuration.
package endpoint

import (
	"fmt"
	"net/url"
	"strings"
)

// restBase is the WooCommerce REST API namespace appended to every template.
const restBase = "/wc/v3"

// Credentials is the consumer key/secret pair sent as query parameters on
// every request. The upstream API expects both parameters to always be
// present, so absent credentials are emitted as empty strings rather than
// omitted keys.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

// Config is an immutable, ordered set of base-URL templates plus the
// credentials appended to every resolved URL. Templates are tried in
// declaration order and never reordered at runtime.
type Config struct {
	Templates   []string
	Credentials Credentials
}

// NewConfig derives the candidate templates from a store domain.
// The domain may be given with or without scheme and www prefix; both host
// variants are covered. Order: www + permalink routing, www + front
// controller, then the alternate host with permalink routing.
func NewConfig(domain string, creds Credentials) (Config, error) {
	host := normalizeHost(domain)
	if host == "" {
		return Config{}, fmt.Errorf("store domain is required")
	}

	primary := host
	if !strings.HasPrefix(primary, "www.") {
		primary = "www." + host
	}
	alternate := strings.TrimPrefix(primary, "www.")

	templates := []string{
		"https://" + primary + "/wp-json" + restBase,
		"https://" + primary + "/index.php?rest_route=" + restBase,
	}
	if alternate != primary {
		templates = append(templates, "https://"+alternate+"/wp-json"+restBase)
	}

	return Config{Templates: templates, Credentials: creds}, nil
}

// normalizeHost strips scheme, path, and trailing slashes from a domain.
func normalizeHost(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}

// Resolve combines the template at templateIndex with the resource path and
// appends credentials plus params as query entries. An out-of-range index is
// clamped to the first template. Deterministic: identical inputs always
// yield an identical URL string (query keys are emitted in sorted order).
// No network or I/O side effects.
func (c Config) Resolve(path string, params url.Values, templateIndex int) string {
	if templateIndex < 0 || templateIndex >= len(c.Templates) {
		templateIndex = 0
	}
	tmpl := c.Templates[templateIndex]
	path = strings.Trim(path, "/")

	query := url.Values{}
	// Always-present auth parameters, empty strings when unset.
	query.Set("consumer_key", c.Credentials.ConsumerKey)
	query.Set("consumer_secret", c.Credentials.ConsumerSecret)
	for key, vals := range params {
		for _, v := range vals {
			query.Add(key, v)
		}
	}

	// Front-controller templates already carry a query string; the resource
	// path extends the rest_route value and further parameters chain on
	// with '&'. rest_route stays unescaped so WordPress route matching sees
	// the literal path.
	if strings.Contains(tmpl, "?") {
		return tmpl + "/" + path + "&" + query.Encode()
	}
	return tmpl + "/" + path + "?" + query.Encode()
}
