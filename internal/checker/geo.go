package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"golang.org/x/time/rate"
)

const (
	DefaultGeoTimeout = 5 * time.Second
	DefaultGeoAPIURL  = "http://ip-api.com/json/{host}?fields=country,countryCode"
	// ip-api.com free tier allows 45 requests per minute.
	DefaultGeoRatePerMinute = 45
)

var errNoCountry = errors.New("no country code")

// Locator maps a descriptor host (IP or hostname) to a two-letter country code.
type Locator interface {
	Country(ctx context.Context, host string) (string, error)
}

// IPAPI looks hosts up against an ip-api.com style JSON endpoint. The URL
// template must contain "{host}".
type IPAPI struct {
	URL     string
	Timeout time.Duration

	client  *http.Client
	limiter *rate.Limiter
}

// NewIPAPI builds an HTTP locator. perMinute <= 0 disables throttling.
func NewIPAPI(urlTemplate string, timeout time.Duration, perMinute int) *IPAPI {
	if urlTemplate == "" {
		urlTemplate = DefaultGeoAPIURL
	}
	if timeout <= 0 {
		timeout = DefaultGeoTimeout
	}
	a := &IPAPI{
		URL:     urlTemplate,
		Timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
	if perMinute > 0 {
		a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return a
}

type ipAPIResponse struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

func (a *IPAPI) Country(ctx context.Context, host string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	if a.limiter != nil {
		// Wait fails fast when the slot lies beyond the deadline
		if err := a.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("geo throttle: %w", err)
		}
	}

	target := strings.ReplaceAll(a.URL, "{host}", url.PathEscape(host))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo lookup: unexpected status %d", resp.StatusCode)
	}

	var parsed ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("geo lookup: decode: %w", err)
	}
	if parsed.CountryCode == "" {
		return "", errNoCountry
	}
	return parsed.CountryCode, nil
}

// GeoIPDB answers from a local MaxMind country database.
type GeoIPDB struct {
	reader   *geoip2.Reader
	resolver *net.Resolver
}

func OpenGeoIP(path string) (*GeoIPDB, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	return &GeoIPDB{reader: r, resolver: net.DefaultResolver}, nil
}

func (d *GeoIPDB) Country(ctx context.Context, host string) (string, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := d.resolver.LookupIP(ctx, "ip", host)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", host, err)
		}
		if len(ips) == 0 {
			return "", fmt.Errorf("resolve %s: no addresses", host)
		}
		ip = ips[0]
	}

	record, err := d.reader.Country(ip)
	if err != nil {
		return "", err
	}
	if record.Country.IsoCode == "" {
		return "", errNoCountry
	}
	return record.Country.IsoCode, nil
}

func (d *GeoIPDB) Close() error {
	return d.reader.Close()
}

// Chain asks each locator in turn and returns the first answer.
type Chain []Locator

func (c Chain) Country(ctx context.Context, host string) (string, error) {
	var errs []error
	for _, l := range c {
		code, err := l.Country(ctx, host)
		if err == nil && code != "" {
			return code, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return "", errNoCountry
	}
	return "", errors.Join(errs...)
}
