// Package ipinfo resolves the host's public IP address and coarse location.
// The result is shown next to the VPN verdict; it never influences it.
package ipinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yllada/vpn-detector/common"
)

// maxBodySize caps the response body read from the endpoint.
const maxBodySize = 1 << 20

// Info is the identity snapshot returned by the lookup.
// Only IP and Location are required; everything else is best effort.
type Info struct {
	IP       string   `json:"ip"`
	Location string   `json:"loc"`
	Org      string   `json:"org,omitempty"`
	Hostname string   `json:"hostname,omitempty"`
	City     string   `json:"city,omitempty"`
	Region   string   `json:"region,omitempty"`
	Country  string   `json:"country,omitempty"`
	Postal   string   `json:"postal,omitempty"`
	Timezone string   `json:"timezone,omitempty"`
	ASN      *ASN     `json:"asn,omitempty"`
	Company  *Company `json:"company,omitempty"`
}

// ASN describes the autonomous system. Free-tier responses only carry the
// number inside Org.
type ASN struct {
	ASN    string `json:"asn"`
	Name   string `json:"name,omitempty"`
	Domain string `json:"domain,omitempty"`
	Route  string `json:"route,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Company is the organization owning the address.
type Company struct {
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Place returns "City, Region, Country" with empty parts skipped, falling
// back to the raw coordinates.
func (i *Info) Place() string {
	var parts []string
	for _, p := range []string{i.City, i.Region, i.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return i.Location
	}
	return strings.Join(parts, ", ")
}

// Options configures a Client.
type Options struct {
	// URL of the JSON endpoint. Defaults to common.DefaultLookupURL.
	URL string
	// Token is sent as the token query parameter when non-empty.
	Token string
	// Timeout bounds the whole request. Defaults to common.LookupTimeout.
	Timeout time.Duration
	// HTTPClient overrides the transport. Its Timeout is replaced by Timeout.
	HTTPClient *http.Client
}

// Client performs identity lookups.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
}

// NewClient creates a lookup client.
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = common.DefaultLookupURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = common.LookupTimeout
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		hc = &copied
	}
	hc.Timeout = opts.Timeout

	return &Client{
		httpClient: hc,
		url:        opts.URL,
		token:      opts.Token,
	}
}

// Lookup fetches the identity snapshot. Every failure wraps
// common.ErrLookupFailed; a body without ip or loc additionally wraps
// common.ErrMalformedResponse, and an expired deadline common.ErrTimeout.
func (c *Client) Lookup(ctx context.Context) (*Info, error) {
	reqURL, err := c.requestURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.AppBinary)

	common.LogDebug("Identity lookup: GET %s (token: %t)", c.url, c.token != "")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w after %v", common.ErrLookupFailed, common.ErrTimeout, c.httpClient.Timeout)
		}
		return nil, fmt.Errorf("%w: %s", common.ErrLookupFailed, redact(err.Error(), c.token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w reading response", common.ErrLookupFailed, common.ErrTimeout)
		}
		return nil, fmt.Errorf("%w: reading response: %v", common.ErrLookupFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", common.ErrLookupFailed, resp.StatusCode, truncate(msg, 200))
	}

	info, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrLookupFailed, err)
	}

	common.LogDebug("Identity lookup finished in %v: %s", time.Since(start), info.IP)
	return info, nil
}

func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", err
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Parse decodes an endpoint response. ip and loc must be non-empty strings;
// asn may be either a bare string or an object.
func Parse(body []byte) (*Info, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not JSON", common.ErrMalformedResponse)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: body is not a JSON object", common.ErrMalformedResponse)
	}

	info := &Info{
		IP:       doc.Get("ip").String(),
		Location: doc.Get("loc").String(),
		Org:      doc.Get("org").String(),
		Hostname: doc.Get("hostname").String(),
		City:     doc.Get("city").String(),
		Region:   doc.Get("region").String(),
		Country:  doc.Get("country").String(),
		Postal:   doc.Get("postal").String(),
		Timezone: doc.Get("timezone").String(),
	}

	if strings.TrimSpace(info.IP) == "" {
		return nil, fmt.Errorf("%w: missing \"ip\"", common.ErrMalformedResponse)
	}
	if strings.TrimSpace(info.Location) == "" {
		return nil, fmt.Errorf("%w: missing \"loc\"", common.ErrMalformedResponse)
	}

	switch asn := doc.Get("asn"); {
	case asn.IsObject():
		info.ASN = &ASN{
			ASN:    asn.Get("asn").String(),
			Name:   asn.Get("name").String(),
			Domain: asn.Get("domain").String(),
			Route:  asn.Get("route").String(),
			Type:   asn.Get("type").String(),
		}
	case asn.Type == gjson.String && asn.String() != "":
		info.ASN = &ASN{ASN: asn.String()}
	}

	if company := doc.Get("company"); company.IsObject() {
		info.Company = &Company{
			Name:   company.Get("name").String(),
			Domain: company.Get("domain").String(),
			Type:   company.Get("type").String(),
		}
	}

	return info, nil
}

// ResolveToken returns the lookup token: the environment variable env when
// set, else the value in store, else "".
func ResolveToken(env string, store common.SecretStore) string {
	if env != "" {
		if token := strings.TrimSpace(os.Getenv(env)); token != "" {
			return token
		}
	}
	if store == nil {
		return ""
	}
	token, err := store.Get(common.TokenKey)
	if err != nil {
		if !errors.Is(err, common.ErrCredentialsNotFound) {
			common.LogDebug("Token store unavailable: %v", err)
		}
		return ""
	}
	return token
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// redact masks the token in error text. url.Error embeds the request URL.
func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, url.QueryEscape(token), "REDACTED")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
