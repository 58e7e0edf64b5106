package nlu

import "strings"

// ParseCorrection recognizes the two accepted correction surface forms:
//
//	"not <old>, i meant <new>"  (or "i mean")
//	"change <old> to <new>"
//
// The pre-marker span is searched for the correction subject and the
// post-marker span for the replacement, each against both vocabularies.
// Canonical identifiers are returned; ok is false when either operand cannot
// be resolved.
func (e *Extractor) ParseCorrection(text string) (Correction, bool) {
	normalized := Normalize(text)

	if strings.Contains(normalized, "not") {
		for _, marker := range []string{"i meant", "i mean"} {
			if !strings.Contains(normalized, marker) {
				continue
			}
			parts := strings.SplitN(normalized, marker, 2)
			if len(parts) != 2 {
				continue
			}
			oldSpan := strings.TrimSpace(strings.ReplaceAll(parts[0], "not", ""))
			newSpan := strings.TrimSpace(parts[1])
			if c, ok := e.resolveOperands(oldSpan, newSpan); ok {
				return c, true
			}
		}
	}

	if strings.Contains(normalized, "change") && strings.Contains(normalized, "to") {
		parts := strings.SplitN(normalized, "to", 2)
		if len(parts) == 2 {
			oldSpan := strings.TrimSpace(strings.ReplaceAll(parts[0], "change", ""))
			newSpan := strings.TrimSpace(parts[1])
			if c, ok := e.resolveOperands(oldSpan, newSpan); ok {
				return c, true
			}
		}
	}

	return Correction{}, false
}

func (e *Extractor) resolveOperands(oldSpan, newSpan string) (Correction, bool) {
	oldID, oldKind := e.resolveEntity(oldSpan)
	newID, newKind := e.resolveEntity(newSpan)
	if oldKind == EntityUnknown || newKind == EntityUnknown {
		return Correction{}, false
	}
	return Correction{Old: oldID, OldKind: oldKind, New: newID, NewKind: newKind}, true
}

// resolveEntity maps a text span to a canonical vocabulary id. Exchanges are
// checked first: venue names like "bybit" and "deribit" contain the bitcoin
// variant "bit", so crypto-first resolution would misread them.
func (e *Extractor) resolveEntity(span string) (string, EntityKind) {
	if id, ok := e.vocab.ExchangeFor(span); ok {
		return id, EntityExchange
	}
	if id, ok := e.vocab.CryptoFor(span); ok {
		return id, EntityCrypto
	}
	return "", EntityUnknown
}
