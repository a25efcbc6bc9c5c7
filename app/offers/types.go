package offers

import "strings"

// DefaultCountryCode is applied when a request omits the country.
const DefaultCountryCode = "DE"

// NoBenefits is the sentinel benefits string for offers without any
// recognized perk. Callers rely on the field never being empty.
const NoBenefits = "No specific benefits listed"

// Address is the validated input to a single aggregation run.
type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"houseNumber"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
	CountryCode string `json:"countryCode,omitempty"`
}

// WithDefaults returns a copy with the country code filled in.
func (a Address) WithDefaults() Address {
	if a.CountryCode == "" {
		a.CountryCode = DefaultCountryCode
	}
	return a
}

type ConnectionType string

const (
	ConnectionDSL     ConnectionType = "DSL"
	ConnectionCable   ConnectionType = "Cable"
	ConnectionFiber   ConnectionType = "Fiber"
	ConnectionMobile  ConnectionType = "Mobile"
	ConnectionUnknown ConnectionType = "Unknown"
)

// ParseConnectionType canonicalizes the connection technology labels the
// partners use ("DSL", "CABLE", "fiber", ...) into the common enum.
func ParseConnectionType(s string) ConnectionType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DSL":
		return ConnectionDSL
	case "CABLE":
		return ConnectionCable
	case "FIBER", "FIBRE":
		return ConnectionFiber
	case "MOBILE":
		return ConnectionMobile
	default:
		return ConnectionUnknown
	}
}

// Offer is the canonical normalized offer shape shared by all providers.
// ProviderName and ProviderSpecificID are always populated; every optional
// field is a pointer so that "not specified by this provider" serializes as
// null rather than zero.
type Offer struct {
	ProviderName                string         `json:"providerName"`
	ProductName                 string         `json:"productName"`
	DownloadSpeedMbps           *int           `json:"downloadSpeedMbps"`
	UploadSpeedMbps             *int           `json:"uploadSpeedMbps"`
	MonthlyPriceEur             *float64       `json:"monthlyPriceEur"`
	MonthlyPriceEurAfter2Years  *float64       `json:"monthlyPriceEurAfter2Years"`
	ContractTermMonths          *int           `json:"contractTermMonths"`
	ConnectionType              ConnectionType `json:"connectionType"`
	Benefits                    string         `json:"benefits"`
	TV                          *string        `json:"tv"`
	Discount                    *float64       `json:"discount"`
	DiscountType                *string        `json:"discountType"`
	InstallationServiceIncluded *bool          `json:"installationServiceIncluded"`
	AgeRestrictionMax           *int           `json:"ageRestrictionMax"`
	DataLimitGb                 *int           `json:"dataLimitGb"`
	ProviderSpecificID          string         `json:"providerSpecificId"`
}

// JoinBenefits assembles the human-readable benefits string from whichever
// perks a normalizer collected, falling back to the NoBenefits sentinel.
func JoinBenefits(perks []string) string {
	if len(perks) == 0 {
		return NoBenefits
	}
	return strings.Join(perks, ", ")
}

// CentsToEur converts a partner's minor-unit amount to a major-unit price.
func CentsToEur(cents int) float64 {
	return float64(cents) / 100.0
}
