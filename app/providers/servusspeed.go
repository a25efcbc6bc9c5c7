package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jhartig/offer-comb/app/offers"
)

// servusSpeedDetailWorkers bounds the concurrent per-product detail fetches
// of step two.
const servusSpeedDetailWorkers = 4

// ServusSpeed resolves an address to opaque product IDs first, then fetches
// full detail per ID as a bounded concurrent sub-batch.
type ServusSpeed struct {
	endpoint EndpointConfig
	username string
	password string
	client   *http.Client
}

func NewServusSpeed(endpoint EndpointConfig, username, password string, client *http.Client) *ServusSpeed {
	return &ServusSpeed{endpoint: endpoint, username: username, password: password, client: client}
}

func (s *ServusSpeed) Name() string {
	return "ServusSpeed"
}

type ssAvailableProducts struct {
	ProductIDs []string `json:"productIds"`
}

type ssProductDetail struct {
	ProductName                     string `json:"productName"`
	BandwidthInMbps                 *int   `json:"bandwidthInMbps"`
	PricePerMonthInCent             *int   `json:"pricePerMonthInCent"`
	MinimumContractDurationInMonths *int   `json:"minimumContractDurationInMonths"`
	ConnectionType                  string `json:"connectionType"`
	InstallationServiceIncluded     *bool  `json:"installationServiceIncluded"`
	DiscountInCent                  *int   `json:"discountInCent"`
	Description                     string `json:"description"`
}

func (s *ServusSpeed) Fetch(ctx context.Context, addr offers.Address) ([]offers.Offer, error) {
	productIDs, err := s.fetchAvailableProducts(ctx, addr)
	if err != nil {
		return nil, err
	}
	if len(productIDs) == 0 {
		return nil, nil
	}

	// Step two: one detail call per resolved ID, bounded by a semaphore,
	// one result slot per ID.
	details := make([]*ssProductDetail, len(productIDs))
	sem := make(chan struct{}, servusSpeedDetailWorkers)
	var wg sync.WaitGroup

	for i, pid := range productIDs {
		wg.Add(1)
		go func(slot int, productID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			detail, err := s.fetchProductDetail(ctx, productID)
			if err != nil {
				slog.Warn("ServusSpeed detail fetch failed", "product_id", productID, "error", err)
				return
			}
			details[slot] = detail
		}(i, pid)
	}
	wg.Wait()

	result := make([]offers.Offer, 0, len(productIDs))
	for i, detail := range details {
		if detail == nil {
			continue
		}
		offer, ok := normalizeServusSpeedDetail(productIDs[i], detail)
		if !ok {
			continue
		}
		result = append(result, offer)
	}
	return result, nil
}

func (s *ServusSpeed) fetchAvailableProducts(ctx context.Context, addr offers.Address) ([]string, error) {
	params := url.Values{}
	params.Set("street", addr.Street)
	params.Set("houseNumber", addr.HouseNumber)
	params.Set("city", addr.City)
	params.Set("plz", addr.PostalCode)
	params.Set("countryCode", addr.CountryCode)

	var available ssAvailableProducts
	if err := s.getJSON(ctx, s.endpoint.BaseURL+"/available-products?"+params.Encode(), &available); err != nil {
		return nil, fmt.Errorf("available-products lookup failed: %w", err)
	}
	return available.ProductIDs, nil
}

func (s *ServusSpeed) fetchProductDetail(ctx context.Context, productID string) (*ssProductDetail, error) {
	var detail ssProductDetail
	detailURL := s.endpoint.BaseURL + "/product-details/" + url.PathEscape(productID)
	if err := s.getJSON(ctx, detailURL, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *ServusSpeed) getJSON(ctx context.Context, rawURL string, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(s.endpoint.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.username, s.password)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func normalizeServusSpeedDetail(productID string, detail *ssProductDetail) (offers.Offer, bool) {
	if detail.PricePerMonthInCent == nil {
		slog.Debug("ServusSpeed product without monthly price, skipping", "product_id", productID)
		return offers.Offer{}, false
	}
	price := offers.CentsToEur(*detail.PricePerMonthInCent)

	productName := strings.TrimSpace(detail.ProductName)
	if productName == "" {
		productName = "Servus Speed " + productID
	}

	offer := offers.Offer{
		ProviderName:                "Servus Speed",
		ProductName:                 productName,
		DownloadSpeedMbps:           detail.BandwidthInMbps,
		MonthlyPriceEur:             &price,
		ContractTermMonths:          detail.MinimumContractDurationInMonths,
		ConnectionType:              offers.ParseConnectionType(detail.ConnectionType),
		InstallationServiceIncluded: detail.InstallationServiceIncluded,
		ProviderSpecificID:          productID,
	}

	var perks []string
	if detail.InstallationServiceIncluded != nil && *detail.InstallationServiceIncluded {
		perks = append(perks, "Installation service included")
	}
	if detail.DiscountInCent != nil && *detail.DiscountInCent > 0 {
		offer.Discount = ptr(offers.CentsToEur(*detail.DiscountInCent))
		offer.DiscountType = ptr("Absolute Discount")
		perks = append(perks, fmt.Sprintf("One-time discount of €%.2f", *offer.Discount))
	}
	offer.Benefits = offers.JoinBenefits(perks)

	return offer, true
}
