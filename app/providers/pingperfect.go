package providers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jhartig/offer-comb/app/offers"
)

const pingPerfectOffersPath = "/internet/angebote/data"

// PingPerfect requires every request to be HMAC-signed: the signature covers
// "<unix timestamp>:<canonical JSON body>" with the shared secret.
type PingPerfect struct {
	endpoint      EndpointConfig
	clientID      string
	signingSecret string
	client        *http.Client
	now           func() time.Time
}

func NewPingPerfect(endpoint EndpointConfig, clientID, signingSecret string, client *http.Client) *PingPerfect {
	return &PingPerfect{
		endpoint:      endpoint,
		clientID:      clientID,
		signingSecret: signingSecret,
		client:        client,
		now:           time.Now,
	}
}

func (p *PingPerfect) Name() string {
	return "PingPerfect"
}

func (p *PingPerfect) Fetch(ctx context.Context, addr offers.Address) ([]offers.Offer, error) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(p.endpoint.Timeout)*time.Second)
	defer cancel()

	// json.Marshal writes map keys sorted with no whitespace, which is the
	// canonical form the partner verifies the signature against.
	body, err := json.Marshal(map[string]any{
		"street":      addr.Street,
		"houseNumber": addr.HouseNumber,
		"plz":         addr.PostalCode,
		"city":        addr.City,
		"wantsFiber":  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	timestamp := p.now().Unix()
	signature := p.sign(timestamp, body)

	url := strings.TrimRight(p.endpoint.BaseURL, "/") + pingPerfectOffersPath
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Id", p.clientID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-Signature", signature)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var raw []ppOffer
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := make([]offers.Offer, 0, len(raw))
	for i, item := range raw {
		offer, ok := normalizePingPerfectOffer(item, i)
		if !ok {
			continue
		}
		result = append(result, offer)
	}
	return result, nil
}

func (p *PingPerfect) sign(timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(p.signingSecret))
	fmt.Fprintf(mac, "%d:%s", timestamp, body)
	return hex.EncodeToString(mac.Sum(nil))
}

type ppOffer struct {
	ProviderName   string     `json:"providerName"`
	ProductID      string     `json:"productId"`
	ProductInfo    *ppProduct `json:"productInfo"`
	PricingDetails *ppPricing `json:"pricingDetails"`
}

type ppProduct struct {
	Name                     string `json:"name"`
	Speed                    *int   `json:"speed"`
	ContractDurationInMonths *int   `json:"contractDurationInMonths"`
	ConnectionType           string `json:"connectionType"`
	TV                       string `json:"tv"`
	LimitFrom                *int   `json:"limitFrom"`
	MaxAge                   *int   `json:"maxAge"`
}

type ppPricing struct {
	MonthlyCostInCent *int `json:"monthlyCostInCent"`
	// Either "included"/"true"/"0" or a setup fee in cents as digits.
	InstallationService string `json:"installationService"`
}

func normalizePingPerfectOffer(raw ppOffer, index int) (offers.Offer, bool) {
	if raw.ProductInfo == nil || raw.PricingDetails == nil {
		slog.Debug("PingPerfect offer missing productInfo or pricingDetails, skipping", "index", index)
		return offers.Offer{}, false
	}
	if raw.PricingDetails.MonthlyCostInCent == nil {
		slog.Debug("PingPerfect offer without monthly price, skipping", "index", index)
		return offers.Offer{}, false
	}

	info := raw.ProductInfo
	price := offers.CentsToEur(*raw.PricingDetails.MonthlyCostInCent)

	productName := info.Name
	if productName == "" {
		productName = raw.ProviderName
	}
	if productName == "" {
		productName = fmt.Sprintf("PingPerfectOffer_%d", index)
	}

	providerSpecificID := raw.ProductID
	if providerSpecificID == "" {
		speed := 0
		if info.Speed != nil {
			speed = *info.Speed
		}
		providerSpecificID = fmt.Sprintf("pp_%s_%d_%d", productName, speed, index)
	}

	var perks []string
	installed := false
	switch service := strings.ToLower(strings.TrimSpace(raw.PricingDetails.InstallationService)); service {
	case "included", "true", "0":
		installed = true
		perks = append(perks, "Installation service included")
	default:
		if feeCents, err := strconv.Atoi(service); err == nil {
			if feeCents > 0 {
				perks = append(perks, fmt.Sprintf("Installation fee: €%.2f", offers.CentsToEur(feeCents)))
			} else {
				installed = true
				perks = append(perks, "Installation service included")
			}
		}
	}

	offer := offers.Offer{
		ProviderName:                "Ping Perfect",
		ProductName:                 productName,
		DownloadSpeedMbps:           info.Speed,
		MonthlyPriceEur:             &price,
		ContractTermMonths:          info.ContractDurationInMonths,
		ConnectionType:              offers.ParseConnectionType(info.ConnectionType),
		Benefits:                    offers.JoinBenefits(perks),
		InstallationServiceIncluded: &installed,
		AgeRestrictionMax:           info.MaxAge,
		DataLimitGb:                 info.LimitFrom,
		ProviderSpecificID:          providerSpecificID,
	}

	if tv := strings.TrimSpace(info.TV); tv != "" && !strings.EqualFold(tv, "none") {
		offer.TV = &tv
	}

	return offer, true
}
