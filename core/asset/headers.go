package asset

import "strings"

// Header is a single name/value pair in an ordered header list.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of HTTP headers with case-insensitive name
// lookup. Unlike a map, it preserves insertion order and distinguishes
// between replacing a header (Set) and appending another value for the
// same name (Add), which matters for headers like Vary that may carry
// multiple values.
//
// The zero value is an empty, ready-to-use list.
type Headers struct {
	items []Header
}

// NewHeaders creates a header list from the given pairs, preserving order.
func NewHeaders(items ...Header) Headers {
	h := Headers{items: make([]Header, len(items))}
	copy(h.items, items)
	return h
}

// Get returns the value of the first header with the given name.
// The second return value reports whether the header is present.
func (h *Headers) Get(name string) (string, bool) {
	for _, item := range h.items {
		if strings.EqualFold(item.Name, name) {
			return item.Value, true
		}
	}
	return "", false
}

// Contains reports whether a header with the given name is present.
func (h *Headers) Contains(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Set replaces the value of the header with the given name, keeping its
// position in the list. Any additional occurrences of the name are
// removed. If the header is absent it is appended.
func (h *Headers) Set(name, value string) {
	replaced := false
	kept := h.items[:0]
	for _, item := range h.items {
		if strings.EqualFold(item.Name, name) {
			if replaced {
				continue
			}
			item = Header{Name: item.Name, Value: value}
			replaced = true
		}
		kept = append(kept, item)
	}
	h.items = kept
	if !replaced {
		h.items = append(h.items, Header{Name: name, Value: value})
	}
}

// Add appends a header to the end of the list without touching existing
// values for the same name.
func (h *Headers) Add(name, value string) {
	h.items = append(h.items, Header{Name: name, Value: value})
}

// Del removes all headers with the given name.
func (h *Headers) Del(name string) {
	kept := h.items[:0]
	for _, item := range h.items {
		if strings.EqualFold(item.Name, name) {
			continue
		}
		kept = append(kept, item)
	}
	h.items = kept
}

// Clone returns a deep copy of the header list.
func (h *Headers) Clone() Headers {
	return NewHeaders(h.items...)
}

// Items returns the headers in order. The returned slice is shared with
// the list and must not be modified.
func (h *Headers) Items() []Header {
	return h.items
}

// Len returns the number of headers in the list.
func (h *Headers) Len() int {
	return len(h.items)
}
