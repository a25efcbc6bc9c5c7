package offers

import "testing"

func TestParseConnectionType(t *testing.T) {
	cases := []struct {
		in   string
		want ConnectionType
	}{
		{"DSL", ConnectionDSL},
		{"dsl", ConnectionDSL},
		{"CABLE", ConnectionCable},
		{"Cable", ConnectionCable},
		{"FIBER", ConnectionFiber},
		{"fiber", ConnectionFiber},
		{"MOBILE", ConnectionMobile},
		{" Fiber ", ConnectionFiber},
		{"", ConnectionUnknown},
		{"carrier-pigeon", ConnectionUnknown},
	}

	for _, tc := range cases {
		if got := ParseConnectionType(tc.in); got != tc.want {
			t.Errorf("ParseConnectionType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCentsToEur(t *testing.T) {
	if got := CentsToEur(4931); got != 49.31 {
		t.Errorf("CentsToEur(4931) = %v, want 49.31", got)
	}
	if got := CentsToEur(0); got != 0 {
		t.Errorf("CentsToEur(0) = %v, want 0", got)
	}
}

func TestJoinBenefits(t *testing.T) {
	if got := JoinBenefits(nil); got != NoBenefits {
		t.Errorf("Expected sentinel for no perks, got %q", got)
	}
	if got := JoinBenefits([]string{"a", "b"}); got != "a, b" {
		t.Errorf("Expected 'a, b', got %q", got)
	}
}

func TestAddressWithDefaults(t *testing.T) {
	addr := Address{Street: "Teststraße", HouseNumber: "1", PostalCode: "10115", City: "Berlin"}
	if got := addr.WithDefaults().CountryCode; got != DefaultCountryCode {
		t.Errorf("Expected default country code %q, got %q", DefaultCountryCode, got)
	}

	addr.CountryCode = "AT"
	if got := addr.WithDefaults().CountryCode; got != "AT" {
		t.Errorf("Explicit country code must be kept, got %q", got)
	}
}
