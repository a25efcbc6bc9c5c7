package providers

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jhartig/offer-comb/app/offers"
)

// ByteMe serves its catalog as CSV: one header row followed by offer rows.
// Rows repeating an already-seen productId within the same response are
// dropped silently.
type ByteMe struct {
	endpoint EndpointConfig
	apiKey   string
	client   *http.Client
}

func NewByteMe(endpoint EndpointConfig, apiKey string, client *http.Client) *ByteMe {
	return &ByteMe{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (b *ByteMe) Name() string {
	return "ByteMe"
}

func (b *ByteMe) Fetch(ctx context.Context, addr offers.Address) ([]offers.Offer, error) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(b.endpoint.Timeout)*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("street", addr.Street)
	params.Set("houseNumber", addr.HouseNumber)
	params.Set("city", addr.City)
	params.Set("plz", addr.PostalCode)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, b.endpoint.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var result []offers.Offer
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if err != nil {
			break // io.EOF or a malformed trailing row; keep what we have
		}

		row := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		productID := row("productId")
		if productID == "" {
			slog.Debug("ByteMe row without productId, skipping")
			continue
		}
		if seen[productID] {
			slog.Debug("ByteMe duplicate productId, skipping", "product_id", productID)
			continue
		}
		seen[productID] = true

		offer, ok := normalizeByteMeRow(productID, row)
		if !ok {
			continue
		}
		result = append(result, offer)
	}

	return result, nil
}

func normalizeByteMeRow(productID string, row func(string) string) (offers.Offer, bool) {
	monthlyCents, err := strconv.Atoi(row("monthlyCostInCent"))
	if err != nil {
		slog.Debug("ByteMe row without usable price, skipping", "product_id", productID)
		return offers.Offer{}, false
	}
	price := offers.CentsToEur(monthlyCents)

	offer := offers.Offer{
		ProviderName:       "ByteMe",
		ProductName:        row("providerName"),
		MonthlyPriceEur:    &price,
		ConnectionType:     offers.ParseConnectionType(row("connectionType")),
		ProviderSpecificID: productID,
	}

	if speed, err := strconv.Atoi(row("speed")); err == nil {
		offer.DownloadSpeedMbps = &speed
	}
	if months, err := strconv.Atoi(row("durationInMonths")); err == nil {
		offer.ContractTermMonths = &months
	}
	if tv := row("tv"); tv != "" {
		offer.TV = &tv
	}

	var perks []string

	installed := strings.EqualFold(row("installationService"), "true")
	offer.InstallationServiceIncluded = &installed
	if installed {
		perks = append(perks, "Installation service included")
	}

	if limit, err := strconv.Atoi(row("limitFrom")); err == nil {
		offer.DataLimitGb = &limit
		perks = append(perks, fmt.Sprintf("Data limit: %d GB/month", limit))
	}
	if maxAge, err := strconv.Atoi(row("maxAge")); err == nil {
		offer.AgeRestrictionMax = &maxAge
		perks = append(perks, fmt.Sprintf("Offer valid for customers up to %d years old", maxAge))
	}
	if laterCents, err := strconv.Atoi(row("afterTwoYearsMonthlyCost")); err == nil {
		later := offers.CentsToEur(laterCents)
		offer.MonthlyPriceEurAfter2Years = &later
		if later != price {
			perks = append(perks, fmt.Sprintf("Price changes to €%.2f/month after 2 years", later))
		}
	}
	if voucherCents, err := strconv.Atoi(row("voucherValue")); err == nil {
		offer.Discount = ptr(offers.CentsToEur(voucherCents))
		if voucherType := row("voucherType"); voucherType != "" {
			offer.DiscountType = &voucherType
		}
	}

	offer.Benefits = offers.JoinBenefits(perks)
	return offer, true
}
