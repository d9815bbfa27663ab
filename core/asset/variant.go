package asset

// Variant ties a content-coding token to the file that serves it.
// An empty Encoding marks the identity (uncompressed) variant.
type Variant struct {
	Encoding string
	Entry    Entry
}

// VariantSet holds the identity file of one logical asset plus any
// precompressed alternatives that were found on disk. It always contains
// exactly one identity variant; encoded variants are optional.
type VariantSet struct {
	variants []Variant
}

// ScanVariants stats the identity file at path and every alternative in
// encodings (a content-coding token to path mapping). The identity file
// must exist; its stat error propagates. Alternatives are best-effort:
// a missing sibling is silently dropped, while any other stat error
// (e.g. a socket where a .gz file was expected) propagates.
func ScanVariants(path string, encodings map[string]string, stat StatFunc) (VariantSet, error) {
	identity, err := Stat(path, stat)
	if err != nil {
		return VariantSet{}, err
	}
	set := VariantSet{variants: []Variant{{Entry: identity}}}
	for encoding, altPath := range encodings {
		entry, err := Stat(altPath, stat)
		if err != nil {
			if IsMissing(err) {
				continue
			}
			return VariantSet{}, err
		}
		set.variants = append(set.variants, Variant{Encoding: encoding, Entry: entry})
	}
	return set, nil
}

// Identity returns the uncompressed variant.
func (s VariantSet) Identity() Variant {
	return s.variants[0]
}

// All returns every variant, identity first. The returned slice must
// not be modified.
func (s VariantSet) All() []Variant {
	return s.variants
}

// Len returns the number of variants, including the identity.
func (s VariantSet) Len() int {
	return len(s.variants)
}
