package errors

import "github.com/google/uuid"

// StockShortfall identifies the lot that could not satisfy a request and by
// how much, so callers can branch without parsing messages.
type StockShortfall struct {
	LotID     uuid.UUID `json:"lot_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// ListingShortfall reports that a listing-level reservation could not be
// covered by the listing's listed, unallocated stock.
type ListingShortfall struct {
	ListingID uuid.UUID `json:"listing_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// QuantityViolation reports a quantity that failed a sign constraint.
type QuantityViolation struct {
	Field    string `json:"field"`
	Quantity int    `json:"quantity"`
}

// CharacterLimit reports a text field that exceeded its bound.
type CharacterLimit struct {
	Field  string `json:"field"`
	Limit  int    `json:"limit"`
	Length int    `json:"length"`
}

// VersionMismatch reports an optimistic concurrency token conflict.
type VersionMismatch struct {
	LotID           uuid.UUID `json:"lot_id"`
	SuppliedVersion int64     `json:"supplied_version"`
}
