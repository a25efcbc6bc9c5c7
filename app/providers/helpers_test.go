package providers

import "github.com/jhartig/offer-comb/app/offers"

func testAddress() offers.Address {
	return offers.Address{
		Street:      "Teststraße",
		HouseNumber: "12a",
		PostalCode:  "10115",
		City:        "Berlin",
		CountryCode: "DE",
	}
}
