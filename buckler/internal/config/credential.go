package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrNoCredential is returned when the cookie string is empty or holds no pair.
var ErrNoCredential = errors.New("config: credential not configured")

// Cookie is one name=value pair scoped to the site's registrable domain.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// ParseCookies splits a "k1=v1; k2=v2" credential into cookies on domain.
// Values may themselves contain '='. Fragments without a name are ignored.
func ParseCookies(credential, domain string) ([]Cookie, error) {
	var cookies []Cookie
	for _, part := range strings.Split(credential, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies = append(cookies, Cookie{Name: name, Value: value, Domain: domain})
	}
	if len(cookies) == 0 {
		return nil, ErrNoCredential
	}
	return cookies, nil
}

// CookieDomain returns the configured cookie domain, or ".<eTLD+1>" of the
// site origin ("https://www.streetfighter.com" → ".streetfighter.com").
func (c *Config) CookieDomain() (string, error) {
	if c.Site.CookieDomain != "" {
		return c.Site.CookieDomain, nil
	}
	u, err := url.Parse(c.Site.Origin)
	if err != nil {
		return "", fmt.Errorf("config: parse origin: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("config: origin %q has no host", c.Site.Origin)
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// single-label hosts such as localhost
		return host, nil
	}
	return "." + root, nil
}

// Cookies parses the resolved credential against the cookie domain.
func (c *Config) Cookies() ([]Cookie, error) {
	if strings.TrimSpace(c.Credential) == "" {
		return nil, ErrNoCredential
	}
	domain, err := c.CookieDomain()
	if err != nil {
		return nil, err
	}
	return ParseCookies(c.Credential, domain)
}
