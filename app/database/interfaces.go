package database

// ShareRepository persists offer lists under short opaque identifiers.
type ShareRepository interface {
	// Create stores the serialized offer list and returns the generated
	// identifier.
	Create(offersJSON string) (string, error)
	// Get returns the stored record, or (nil, nil) when the identifier is
	// unknown.
	Get(id string) (*SharedLink, error)
	Count() (int, error)
}
