package providers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jhartig/offer-comb/app/offers"
)

// Provider translates one partner's wire protocol into normalized offers.
// A transport-level problem (timeout, HTTP error status, undecodable body)
// is returned as an error; individual malformed records are skipped and
// logged inside the adapter. The aggregator treats both an error and an
// empty list as "zero offers from this provider".
type Provider interface {
	Name() string
	Fetch(ctx context.Context, addr offers.Address) ([]offers.Offer, error)
}

// Build constructs every enabled provider adapter. WebWunder is built once
// per connection technology because its API answers one technology per call.
func Build(cfg Config, client *http.Client) []offers.Fetcher {
	var built []offers.Fetcher

	add := func(p Provider, hasCreds bool) {
		if !hasCreds {
			slog.Warn("Provider credentials not configured, skipping", "provider", p.Name())
			return
		}
		built = append(built, p)
		slog.Info("Provider enabled", "provider", p.Name())
	}

	if cfg.WebWunder.enabled() {
		for _, conn := range []string{"DSL", "CABLE", "FIBER"} {
			add(NewWebWunder(cfg.WebWunder, cfg.Credentials.WebWunderAPIKey, conn, client),
				cfg.Credentials.WebWunderAPIKey != "")
		}
	}
	if cfg.ByteMe.enabled() {
		add(NewByteMe(cfg.ByteMe, cfg.Credentials.ByteMeAPIKey, client),
			cfg.Credentials.ByteMeAPIKey != "")
	}
	if cfg.PingPerfect.enabled() {
		add(NewPingPerfect(cfg.PingPerfect, cfg.Credentials.PingPerfectClientID, cfg.Credentials.PingPerfectSigningSecret, client),
			cfg.Credentials.PingPerfectClientID != "" && cfg.Credentials.PingPerfectSigningSecret != "")
	}
	if cfg.VerbynDich.enabled() {
		add(NewVerbynDich(cfg.VerbynDich, cfg.Credentials.VerbynDichAPIKey, client),
			cfg.Credentials.VerbynDichAPIKey != "")
	}
	if cfg.ServusSpeed.enabled() {
		add(NewServusSpeed(cfg.ServusSpeed, cfg.Credentials.ServusSpeedUsername, cfg.Credentials.ServusSpeedPassword, client),
			cfg.Credentials.ServusSpeedUsername != "" && cfg.Credentials.ServusSpeedPassword != "")
	}

	return built
}

func ptr[T any](v T) *T {
	return &v
}

// NewHTTPClient returns the shared client the adapters issue partner
// requests through. Per-request timeouts come from each adapter's context,
// not the client.
func NewHTTPClient(userAgent string) *http.Client {
	return &http.Client{
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: userAgent},
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
