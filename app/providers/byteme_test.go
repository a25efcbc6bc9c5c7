package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const byteMeCSV = `productId,providerName,speed,monthlyCostInCent,afterTwoYearsMonthlyCost,durationInMonths,connectionType,installationService,tv,limitFrom,maxAge,voucherType,voucherValue
bm-1,ByteMe Basic 50,50,2999,3499,24,DSL,true,,200,,percentage,10
bm-2,ByteMe Fiber 250,250,4999,4999,12,Fiber,false,ByteTV Plus,,27,absolute,1500
bm-1,ByteMe Basic 50,50,2999,3499,24,DSL,true,,200,,percentage,10
bm-3,ByteMe Broken,100,,,,DSL,false,,,,
`

func newTestByteMe(t *testing.T, handler http.HandlerFunc) *ByteMe {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewByteMe(EndpointConfig{BaseURL: server.URL, Timeout: 5}, "csv-key", server.Client())
}

func TestByteMeFetch(t *testing.T) {
	var capturedQuery map[string][]string
	var capturedAPIKey string

	b := newTestByteMe(t, func(rw http.ResponseWriter, req *http.Request) {
		capturedQuery = req.URL.Query()
		capturedAPIKey = req.Header.Get("X-Api-Key")
		rw.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(rw, byteMeCSV)
	})

	result, err := b.Fetch(context.Background(), testAddress())
	if err != nil {
		t.Fatal(err)
	}

	if capturedAPIKey != "csv-key" {
		t.Errorf("Expected X-Api-Key 'csv-key', got %q", capturedAPIKey)
	}
	for param, want := range map[string]string{
		"street":      "Teststraße",
		"houseNumber": "12a",
		"city":        "Berlin",
		"plz":         "10115",
	} {
		if got := capturedQuery[param]; len(got) != 1 || got[0] != want {
			t.Errorf("Query param %s: expected %q, got %v", param, want, got)
		}
	}

	// Duplicate bm-1 and price-less bm-3 are dropped.
	if len(result) != 2 {
		t.Fatalf("Expected 2 offers after dedup and drops, got %d", len(result))
	}

	basic := result[0]
	if basic.ProviderSpecificID != "bm-1" {
		t.Errorf("Expected first offer bm-1, got %q", basic.ProviderSpecificID)
	}
	if basic.ProviderName != "ByteMe" {
		t.Errorf("Expected provider 'ByteMe', got %q", basic.ProviderName)
	}
	if basic.ProductName != "ByteMe Basic 50" {
		t.Errorf("Expected product name from providerName column, got %q", basic.ProductName)
	}
	if basic.MonthlyPriceEur == nil || *basic.MonthlyPriceEur != 29.99 {
		t.Errorf("Expected price 29.99, got %v", basic.MonthlyPriceEur)
	}
	if basic.MonthlyPriceEurAfter2Years == nil || *basic.MonthlyPriceEurAfter2Years != 34.99 {
		t.Errorf("Expected after-2-years price 34.99, got %v", basic.MonthlyPriceEurAfter2Years)
	}
	if basic.InstallationServiceIncluded == nil || !*basic.InstallationServiceIncluded {
		t.Error("Expected installation service included")
	}
	if basic.DataLimitGb == nil || *basic.DataLimitGb != 200 {
		t.Errorf("Expected data limit 200, got %v", basic.DataLimitGb)
	}

	fiber := result[1]
	if fiber.ProviderSpecificID != "bm-2" {
		t.Errorf("Expected second offer bm-2, got %q", fiber.ProviderSpecificID)
	}
	if fiber.TV == nil || *fiber.TV != "ByteTV Plus" {
		t.Errorf("Expected tv 'ByteTV Plus', got %v", fiber.TV)
	}
	if fiber.AgeRestrictionMax == nil || *fiber.AgeRestrictionMax != 27 {
		t.Errorf("Expected age restriction 27, got %v", fiber.AgeRestrictionMax)
	}
	if fiber.Discount == nil || *fiber.Discount != 15.0 {
		t.Errorf("Expected discount 15.0, got %v", fiber.Discount)
	}
	if fiber.DiscountType == nil || *fiber.DiscountType != "absolute" {
		t.Errorf("Expected discount type 'absolute', got %v", fiber.DiscountType)
	}
}

func TestByteMeEmptyBody(t *testing.T) {
	b := newTestByteMe(t, func(rw http.ResponseWriter, req *http.Request) {
		fmt.Fprint(rw, "productId,providerName,monthlyCostInCent\n")
	})

	result, err := b.Fetch(context.Background(), testAddress())
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 0 {
		t.Fatalf("Expected no offers for header-only CSV, got %d", len(result))
	}
}

func TestByteMeHTTPError(t *testing.T) {
	b := newTestByteMe(t, func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := b.Fetch(context.Background(), testAddress()); err == nil {
		t.Fatal("Expected error for non-200 response")
	}
}
