package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jhartig/offer-comb/app/offers"
)

func webWunderResponse(products string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Header/>
  <SOAP-ENV:Body>
    <ns2:Output xmlns:ns2="http://webwunder.gendev7.check24.fun/offerservice">%s</ns2:Output>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`, products)
}

func newTestWebWunder(t *testing.T, handler http.HandlerFunc) *WebWunder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewWebWunder(EndpointConfig{BaseURL: server.URL, Timeout: 5}, "test-key", "DSL", server.Client())
}

func TestWebWunderFetch(t *testing.T) {
	var capturedBody string
	var capturedAPIKey string

	w := newTestWebWunder(t, func(rw http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		capturedBody = string(body)
		capturedAPIKey = req.Header.Get("X-Api-Key")

		rw.Header().Set("Content-Type", "text/xml; charset=utf-8")
		fmt.Fprint(rw, webWunderResponse(`
      <ns2:products>
        <ns2:productId>4</ns2:productId>
        <ns2:providerName>WebWunder</ns2:providerName>
        <ns2:productInfo>
          <ns2:speed>100</ns2:speed>
          <ns2:monthlyCostInCent>2999</ns2:monthlyCostInCent>
          <ns2:monthlyCostInCentFrom25thMonth>3499</ns2:monthlyCostInCentFrom25thMonth>
          <ns2:contractDurationInMonths>24</ns2:contractDurationInMonths>
          <ns2:connectionType>DSL</ns2:connectionType>
        </ns2:productInfo>
      </ns2:products>`))
	})

	result, err := w.Fetch(context.Background(), testAddress())
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 offer, got %d", len(result))
	}

	if capturedAPIKey != "test-key" {
		t.Errorf("Expected X-Api-Key header 'test-key', got %q", capturedAPIKey)
	}
	for _, fragment := range []string{
		"<gs:connectionEnum>DSL</gs:connectionEnum>",
		"<gs:street>Teststraße</gs:street>",
		"<gs:plz>10115</gs:plz>",
		"<gs:countryCode>DE</gs:countryCode>",
		"legacyGetInternetOffers",
	} {
		if !strings.Contains(capturedBody, fragment) {
			t.Errorf("Request envelope missing %q:\n%s", fragment, capturedBody)
		}
	}

	offer := result[0]
	if offer.ProviderName != "WebWunder" {
		t.Errorf("Expected provider 'WebWunder', got %q", offer.ProviderName)
	}
	if offer.ProviderSpecificID != "4" {
		t.Errorf("Expected provider-specific ID '4', got %q", offer.ProviderSpecificID)
	}
	if offer.MonthlyPriceEur == nil || *offer.MonthlyPriceEur != 29.99 {
		t.Errorf("Expected monthly price 29.99, got %v", offer.MonthlyPriceEur)
	}
	if offer.MonthlyPriceEurAfter2Years == nil || *offer.MonthlyPriceEurAfter2Years != 34.99 {
		t.Errorf("Expected price after 2 years 34.99, got %v", offer.MonthlyPriceEurAfter2Years)
	}
	if offer.DownloadSpeedMbps == nil || *offer.DownloadSpeedMbps != 100 {
		t.Errorf("Expected download speed 100, got %v", offer.DownloadSpeedMbps)
	}
	if offer.ConnectionType != offers.ConnectionDSL {
		t.Errorf("Expected connection type DSL, got %q", offer.ConnectionType)
	}
}

func TestWebWunderVoucherPolymorphism(t *testing.T) {
	w := newTestWebWunder(t, func(rw http.ResponseWriter, req *http.Request) {
		fmt.Fprint(rw, webWunderResponse(`
      <ns2:products>
        <ns2:productId>1</ns2:productId>
        <ns2:productInfo>
          <ns2:monthlyCostInCent>3000</ns2:monthlyCostInCent>
          <ns2:connectionType>DSL</ns2:connectionType>
          <ns2:voucher xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:type="ns2:absoluteVoucher">
            <ns2:valueInCent>1000</ns2:valueInCent>
            <ns2:minOrderValueInCent>5000</ns2:minOrderValueInCent>
          </ns2:voucher>
        </ns2:productInfo>
      </ns2:products>
      <ns2:products>
        <ns2:productId>2</ns2:productId>
        <ns2:productInfo>
          <ns2:monthlyCostInCent>4000</ns2:monthlyCostInCent>
          <ns2:connectionType>FIBER</ns2:connectionType>
          <ns2:percentageVoucher>
            <ns2:percentage>10</ns2:percentage>
            <ns2:maxDiscountInCent>2000</ns2:maxDiscountInCent>
          </ns2:percentageVoucher>
        </ns2:productInfo>
      </ns2:products>`))
	})

	result, err := w.Fetch(context.Background(), testAddress())
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 offers, got %d", len(result))
	}

	absolute, percentage := result[0], result[1]

	if absolute.Discount == nil || *absolute.Discount != 10.0 {
		t.Errorf("Expected absolute discount 10.0, got %v", absolute.Discount)
	}
	if absolute.DiscountType == nil || *absolute.DiscountType != "Absolute Voucher" {
		t.Errorf("Expected discount type 'Absolute Voucher', got %v", absolute.DiscountType)
	}
	if !strings.Contains(absolute.Benefits, "min. order €50.00") {
		t.Errorf("Expected min-order threshold in benefits, got %q", absolute.Benefits)
	}

	if percentage.Discount == nil || *percentage.Discount != 20.0 {
		t.Errorf("Expected percentage discount cap 20.0, got %v", percentage.Discount)
	}
	if percentage.DiscountType == nil || *percentage.DiscountType != "Percentage Voucher" {
		t.Errorf("Expected discount type 'Percentage Voucher', got %v", percentage.DiscountType)
	}
	if *absolute.DiscountType == *percentage.DiscountType {
		t.Error("Voucher variants must normalize to distinct discount types")
	}
}

func TestWebWunderSOAPFault(t *testing.T) {
	w := newTestWebWunder(t, func(rw http.ResponseWriter, req *http.Request) {
		fmt.Fprint(rw, `<?xml version="1.0"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Body>
    <SOAP-ENV:Fault>
      <faultcode>SOAP-ENV:Server</faultcode>
      <faultstring>address not serviceable</faultstring>
    </SOAP-ENV:Fault>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`)
	})

	result, err := w.Fetch(context.Background(), testAddress())
	if err != nil {
		t.Fatalf("SOAP fault must short-circuit to empty, got error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("Expected empty result on fault, got %d offers", len(result))
	}
}

func TestWebWunderDropsIncompleteProducts(t *testing.T) {
	w := newTestWebWunder(t, func(rw http.ResponseWriter, req *http.Request) {
		fmt.Fprint(rw, webWunderResponse(`
      <ns2:products>
        <ns2:productId>1</ns2:productId>
      </ns2:products>
      <ns2:products>
        <ns2:productId>2</ns2:productId>
        <ns2:productInfo>
          <ns2:speed>50</ns2:speed>
          <ns2:connectionType>DSL</ns2:connectionType>
        </ns2:productInfo>
      </ns2:products>
      <ns2:products>
        <ns2:productId>3</ns2:productId>
        <ns2:productInfo>
          <ns2:monthlyCostInCent>1999</ns2:monthlyCostInCent>
          <ns2:connectionType>DSL</ns2:connectionType>
        </ns2:productInfo>
      </ns2:products>`))
	})

	result, err := w.Fetch(context.Background(), testAddress())
	if err != nil {
		t.Fatal(err)
	}
	// Product 1 lacks productInfo, product 2 lacks a price; only 3 survives.
	if len(result) != 1 || result[0].ProviderSpecificID != "3" {
		t.Fatalf("Expected only the complete product, got %+v", result)
	}
}

func TestWebWunderHTTPError(t *testing.T) {
	w := newTestWebWunder(t, func(rw http.ResponseWriter, req *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
	})

	if _, err := w.Fetch(context.Background(), testAddress()); err == nil {
		t.Fatal("Expected error for non-200 response")
	}
}
