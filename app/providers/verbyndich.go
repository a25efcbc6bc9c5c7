package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jhartig/offer-comb/app/offers"
)

// maxVerbynDichPages caps pagination against a misbehaving or changed
// partner contract.
const maxVerbynDichPages = 20

// The partner embeds all offer data in a free-text German description; each
// field is extracted with its own pattern and each pattern is independently
// optional. The wording is partner-controlled, so these are fragile by
// nature and kept literal.
var (
	vdPriceRe        = regexp.MustCompile(`Für nur (\d+)€ im Monat`)
	vdConnTypeRe     = regexp.MustCompile(`eine (DSL|Cable|Fiber)-Verbindung`)
	vdSpeedRe        = regexp.MustCompile(`Geschwindigkeit von (\d+)\s*Mbit/s`)
	vdTermRe         = regexp.MustCompile(`Mindestvertragslaufzeit (\d+)\s*Monate`)
	vdLimitRe        = regexp.MustCompile(`Ab (\d+)GB pro Monat wird die Geschwindigkeit gedrosselt`)
	vdPercDiscountRe = regexp.MustCompile(`Rabatt von (\d+)% auf Ihre monatliche Rechnung bis zum (\d+)\. Monat\.\s*Der maximale Rabatt beträgt (\d+)€`)
	vdOnceDiscountRe = regexp.MustCompile(`einmaligen Rabatt von (\d+)€.*?Der Mindestbestellwert beträgt (\d+)€`)
	vdPriceAfterRe   = regexp.MustCompile(`Ab dem 24\. Monat beträgt der monatliche Preis (\d+)€`)
	vdAgeRe          = regexp.MustCompile(`Personen unter (\d+)\s*Jahren verfügbar`)
)

// VerbynDich pages through single-offer plain-text responses until the
// partner marks the last page or the page cap is reached.
type VerbynDich struct {
	endpoint EndpointConfig
	apiKey   string
	client   *http.Client
}

func NewVerbynDich(endpoint EndpointConfig, apiKey string, client *http.Client) *VerbynDich {
	return &VerbynDich{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (v *VerbynDich) Name() string {
	return "VerbynDich"
}

type vdResponse struct {
	Product     string `json:"product"`
	Description string `json:"description"`
	Valid       bool   `json:"valid"`
	Last        bool   `json:"last"`
}

func (v *VerbynDich) Fetch(ctx context.Context, addr offers.Address) ([]offers.Offer, error) {
	body := strings.Join([]string{
		strings.TrimSpace(addr.Street),
		strings.TrimSpace(addr.HouseNumber),
		strings.TrimSpace(addr.City),
		strings.TrimSpace(addr.PostalCode),
	}, ";")

	var result []offers.Offer

	for page := 0; page < maxVerbynDichPages; page++ {
		item, err := v.fetchPage(ctx, body, page)
		if err != nil {
			if len(result) > 0 {
				// Partial pagination failure: keep what earlier pages gave us.
				slog.Warn("VerbynDich pagination aborted", "page", page, "collected", len(result), "error", err)
				return result, nil
			}
			return nil, err
		}

		if item.Valid {
			offer, ok := normalizeVerbynDichOffer(item)
			if ok {
				result = append(result, offer)
			}
		}
		if item.Last {
			break
		}
	}

	return result, nil
}

func (v *VerbynDich) fetchPage(ctx context.Context, body string, page int) (*vdResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(v.endpoint.Timeout)*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("apiKey", v.apiKey)
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, v.endpoint.BaseURL+"?"+params.Encode(), strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for page %d: %w", page, err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request for page %d failed: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error on page %d: %d %s", page, resp.StatusCode, resp.Status)
	}

	var item vdResponse
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", page, err)
	}
	return &item, nil
}

func normalizeVerbynDichOffer(item *vdResponse) (offers.Offer, bool) {
	productName := item.Product
	if productName == "" {
		slog.Debug("VerbynDich offer without product name, skipping")
		return offers.Offer{}, false
	}

	offer := offers.Offer{
		ProviderName:       "Verbyndich",
		ProductName:        productName,
		ConnectionType:     offers.ConnectionUnknown,
		ProviderSpecificID: productName,
	}

	var perks []string
	desc := item.Description

	if m := vdPriceRe.FindStringSubmatch(desc); m != nil {
		price, _ := strconv.ParseFloat(m[1], 64)
		offer.MonthlyPriceEur = &price
	}
	if m := vdConnTypeRe.FindStringSubmatch(desc); m != nil {
		offer.ConnectionType = offers.ParseConnectionType(m[1])
	}
	if m := vdSpeedRe.FindStringSubmatch(desc); m != nil {
		speed, _ := strconv.Atoi(m[1])
		offer.DownloadSpeedMbps = &speed
	}
	if m := vdTermRe.FindStringSubmatch(desc); m != nil {
		months, _ := strconv.Atoi(m[1])
		offer.ContractTermMonths = &months
	}
	if m := vdLimitRe.FindStringSubmatch(desc); m != nil {
		limit, _ := strconv.Atoi(m[1])
		offer.DataLimitGb = &limit
		perks = append(perks, fmt.Sprintf("Speed throttled after %dGB/month", limit))
	}
	if m := vdPriceAfterRe.FindStringSubmatch(desc); m != nil {
		later, _ := strconv.ParseFloat(m[1], 64)
		offer.MonthlyPriceEurAfter2Years = &later
	}
	if m := vdAgeRe.FindStringSubmatch(desc); m != nil {
		age, _ := strconv.Atoi(m[1])
		offer.AgeRestrictionMax = &age
		perks = append(perks, fmt.Sprintf("Young tariff: for persons under %d years", age))
	}

	// Discount clauses: a one-time discount takes precedence over the
	// percentage variant for the (discount, discountType) pair; both still
	// contribute benefits text.
	if m := vdPercDiscountRe.FindStringSubmatch(desc); m != nil {
		percentage, _ := strconv.Atoi(m[1])
		months, _ := strconv.Atoi(m[2])
		maxEur, _ := strconv.ParseFloat(m[3], 64)
		offer.Discount = &maxEur
		offer.DiscountType = ptr("Percentage (Monthly)")
		perks = append(perks, fmt.Sprintf("%d%% monthly discount for %d months (max total €%.0f)", percentage, months, maxEur))
	}
	if m := vdOnceDiscountRe.FindStringSubmatch(desc); m != nil {
		amount, _ := strconv.ParseFloat(m[1], 64)
		minOrder, _ := strconv.ParseFloat(m[2], 64)
		offer.Discount = &amount
		offer.DiscountType = ptr("One-time Discount")
		perks = append(perks, fmt.Sprintf("One-time discount of €%.0f (min. order €%.0f)", amount, minOrder))
	}

	if offer.MonthlyPriceEur == nil {
		slog.Debug("VerbynDich description without extractable price, skipping", "product", productName)
		return offers.Offer{}, false
	}

	offer.Benefits = offers.JoinBenefits(perks)
	return offer, true
}
