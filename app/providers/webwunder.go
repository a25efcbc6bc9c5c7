package providers

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jhartig/offer-comb/app/offers"
)

const webWunderNamespace = "http://webwunder.gendev7.check24.fun/offerservice"

// WebWunder talks to the partner's SOAP endpoint. The envelope is built by
// hand rather than generated from the WSDL; the request covers exactly one
// connection technology, so the registry builds three instances.
type WebWunder struct {
	endpoint       EndpointConfig
	apiKey         string
	connectionType string
	client         *http.Client
}

func NewWebWunder(endpoint EndpointConfig, apiKey, connectionType string, client *http.Client) *WebWunder {
	return &WebWunder{
		endpoint:       endpoint,
		apiKey:         apiKey,
		connectionType: connectionType,
		client:         client,
	}
}

func (w *WebWunder) Name() string {
	return "WebWunder-" + w.connectionType
}

func (w *WebWunder) Fetch(ctx context.Context, addr offers.Address) ([]offers.Offer, error) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(w.endpoint.Timeout)*time.Second)
	defer cancel()

	envelope := w.buildEnvelope(addr)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, w.endpoint.BaseURL, strings.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("X-Api-Key", w.apiKey)
	req.Header.Set("SOAPAction", "")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SOAP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var env wwEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse SOAP envelope: %w", err)
	}

	if env.Body.Fault != nil {
		slog.Warn("SOAP fault returned", "provider", w.Name(), "fault", env.Body.Fault.FaultString)
		return nil, nil
	}
	if env.Body.Output == nil {
		slog.Warn("SOAP response carries no Output element", "provider", w.Name())
		return nil, nil
	}

	result := make([]offers.Offer, 0, len(env.Body.Output.Products))
	for _, product := range env.Body.Output.Products {
		offer, ok := normalizeWebWunderProduct(product)
		if !ok {
			continue
		}
		result = append(result, offer)
	}
	return result, nil
}

// buildEnvelope renders the legacyGetInternetOffers request. Address values
// are XML-escaped since they come straight from client input.
func (w *WebWunder) buildEnvelope(addr offers.Address) string {
	var b strings.Builder
	b.WriteString(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Header/><soapenv:Body>`)
	fmt.Fprintf(&b, `<gs:legacyGetInternetOffers xmlns:gs=%q><gs:input>`, webWunderNamespace)
	b.WriteString(`<gs:installation>true</gs:installation>`)
	fmt.Fprintf(&b, `<gs:connectionEnum>%s</gs:connectionEnum>`, w.connectionType)
	b.WriteString(`<gs:address>`)
	fmt.Fprintf(&b, `<gs:street>%s</gs:street>`, xmlEscape(addr.Street))
	fmt.Fprintf(&b, `<gs:houseNumber>%s</gs:houseNumber>`, xmlEscape(addr.HouseNumber))
	fmt.Fprintf(&b, `<gs:city>%s</gs:city>`, xmlEscape(addr.City))
	fmt.Fprintf(&b, `<gs:plz>%s</gs:plz>`, xmlEscape(addr.PostalCode))
	fmt.Fprintf(&b, `<gs:countryCode>%s</gs:countryCode>`, xmlEscape(addr.CountryCode))
	b.WriteString(`</gs:address>`)
	b.WriteString(`</gs:input></gs:legacyGetInternetOffers>`)
	b.WriteString(`</soapenv:Body></soapenv:Envelope>`)
	return b.String()
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Response envelope. encoding/xml matches local names regardless of the
// namespace prefix the server picks.
type wwEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    wwBody   `xml:"Body"`
}

type wwBody struct {
	Fault  *wwFault  `xml:"Fault"`
	Output *wwOutput `xml:"Output"`
}

type wwFault struct {
	FaultString string `xml:"faultstring"`
}

type wwOutput struct {
	Products []wwProduct `xml:"products"`
}

type wwProduct struct {
	ProductID    *int           `xml:"productId"`
	ProviderName string         `xml:"providerName"`
	ProductInfo  *wwProductInfo `xml:"productInfo"`
}

type wwProductInfo struct {
	Speed                          *int   `xml:"speed"`
	MonthlyCostInCent              *int   `xml:"monthlyCostInCent"`
	MonthlyCostInCentFrom25thMonth *int   `xml:"monthlyCostInCentFrom25thMonth"`
	ContractDurationInMonths       *int   `xml:"contractDurationInMonths"`
	ConnectionType                 string `xml:"connectionType"`

	// The voucher sub-element is polymorphic: either a <voucher> carrying an
	// xsi:type discriminator or a variant-named tag.
	Voucher           *wwVoucher `xml:"voucher"`
	AbsoluteVoucher   *wwVoucher `xml:"absoluteVoucher"`
	PercentageVoucher *wwVoucher `xml:"percentageVoucher"`
}

type wwVoucher struct {
	XMLName             xml.Name
	XsiType             string `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr"`
	ValueInCent         *int   `xml:"valueInCent"`
	MinOrderValueInCent *int   `xml:"minOrderValueInCent"`
	Percentage          *int   `xml:"percentage"`
	MaxDiscountInCent   *int   `xml:"maxDiscountInCent"`
}

func (p *wwProductInfo) voucher() *wwVoucher {
	switch {
	case p.Voucher != nil:
		return p.Voucher
	case p.AbsoluteVoucher != nil:
		return p.AbsoluteVoucher
	case p.PercentageVoucher != nil:
		return p.PercentageVoucher
	}
	return nil
}

func (v *wwVoucher) isVariant(name string) bool {
	return strings.Contains(v.XsiType, name) || v.XMLName.Local == name
}

func normalizeWebWunderProduct(product wwProduct) (offers.Offer, bool) {
	info := product.ProductInfo
	if info == nil {
		slog.Debug("WebWunder product without productInfo, skipping")
		return offers.Offer{}, false
	}
	if product.ProductID == nil || info.MonthlyCostInCent == nil {
		slog.Debug("WebWunder product missing identity or price, skipping")
		return offers.Offer{}, false
	}

	providerLabel := product.ProviderName
	if providerLabel == "" {
		providerLabel = "WebWunder"
	}

	price := offers.CentsToEur(*info.MonthlyCostInCent)

	var priceAfter2Years *float64
	if info.MonthlyCostInCentFrom25thMonth != nil {
		later := offers.CentsToEur(*info.MonthlyCostInCentFrom25thMonth)
		// Identical to the base price means the partner repeated the value,
		// not that the price changes.
		if later != price {
			priceAfter2Years = &later
		}
	}

	connType := offers.ParseConnectionType(info.ConnectionType)

	productName := providerLabel
	if info.Speed != nil && info.ConnectionType != "" {
		productName = fmt.Sprintf("%s %s %d", providerLabel, info.ConnectionType, *info.Speed)
	} else if info.Speed != nil {
		productName = fmt.Sprintf("%s %d", providerLabel, *info.Speed)
	}

	var perks []string
	var discount *float64
	var discountType *string

	if v := info.voucher(); v != nil {
		switch {
		case v.isVariant("absoluteVoucher"):
			if v.ValueInCent != nil {
				discount = ptr(offers.CentsToEur(*v.ValueInCent))
				discountType = ptr("Absolute Voucher")
				perk := fmt.Sprintf("€%.2f voucher", *discount)
				if v.MinOrderValueInCent != nil {
					perk += fmt.Sprintf(" (min. order €%.2f)", offers.CentsToEur(*v.MinOrderValueInCent))
				}
				perks = append(perks, perk)
			}
		case v.isVariant("percentageVoucher"):
			if v.Percentage != nil && v.MaxDiscountInCent != nil {
				discount = ptr(offers.CentsToEur(*v.MaxDiscountInCent))
				discountType = ptr("Percentage Voucher")
				perks = append(perks, fmt.Sprintf("%d%% voucher (max €%.2f)", *v.Percentage, *discount))
			}
		}
	}
	if priceAfter2Years != nil {
		perks = append(perks, fmt.Sprintf("Price changes to €%.2f/month after 2 years", *priceAfter2Years))
	}

	return offers.Offer{
		ProviderName:               "WebWunder",
		ProductName:                productName,
		DownloadSpeedMbps:          info.Speed,
		MonthlyPriceEur:            &price,
		MonthlyPriceEurAfter2Years: priceAfter2Years,
		ContractTermMonths:         info.ContractDurationInMonths,
		ConnectionType:             connType,
		Benefits:                   offers.JoinBenefits(perks),
		Discount:                   discount,
		DiscountType:               discountType,
		ProviderSpecificID:         strconv.Itoa(*product.ProductID),
	}, true
}
