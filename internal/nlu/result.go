package nlu

import "github.com/shopspring/decimal"

// Kind discriminates extraction outcomes.
type Kind int

const (
	// KindNone means no entity or intent was recognized.
	KindNone Kind = iota
	// KindExchange carries a resolved exchange identifier.
	KindExchange
	// KindCrypto carries a resolved crypto asset identifier.
	KindCrypto
	// KindQuantityPrice carries zero or more of quantity and price.
	KindQuantityPrice
	// KindFilter marks a candidate-list filter request.
	KindFilter
	// KindCorrection carries a parsed subject/replacement pair.
	KindCorrection
)

// Result is the discriminated outcome of a single extraction pass. Results
// are produced fresh per utterance and never persisted.
type Result struct {
	Kind     Kind
	Exchange string
	Crypto   string
	Quantity *decimal.Decimal
	Price    *decimal.Decimal
	Old      string
	New      string
}

// EntityKind classifies the subject or replacement of a correction.
type EntityKind int

const (
	// EntityUnknown marks an unresolvable correction operand.
	EntityUnknown EntityKind = iota
	// EntityCrypto marks a crypto asset operand.
	EntityCrypto
	// EntityExchange marks an exchange operand.
	EntityExchange
)

// Correction is a parsed "actually I meant X" utterance. Old and New are
// canonical vocabulary identifiers.
type Correction struct {
	Old     string
	OldKind EntityKind
	New     string
	NewKind EntityKind
}
