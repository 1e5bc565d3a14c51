package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Item is a single entry of the collection.
type Item struct {
	ID          ItemID `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ItemID identifies an item. The collection service may send ids as JSON
// numbers or strings; the value is kept as received and encodes back the
// same way.
type ItemID struct {
	raw    string
	quoted bool
}

// IntID returns a numeric id.
func IntID(n int64) ItemID {
	return ItemID{raw: strconv.FormatInt(n, 10)}
}

// StringID returns a string id.
func StringID(s string) ItemID {
	return ItemID{raw: s, quoted: true}
}

// String returns the id text without JSON quoting.
func (id ItemID) String() string {
	return id.raw
}

// Int64 returns the id as an integer when it is one.
func (id ItemID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(id.raw, 10, 64)
	return n, err == nil
}

// Less orders ids numerically when both are integers, by text otherwise.
func (id ItemID) Less(other ItemID) bool {
	a, aok := id.Int64()
	b, bok := other.Int64()
	if aok && bok {
		return a < b
	}
	if aok != bok {
		return aok
	}
	return id.raw < other.raw
}

// MarshalJSON implements json.Marshaler.
func (id ItemID) MarshalJSON() ([]byte, error) {
	if id.quoted {
		return json.Marshal(id.raw)
	}
	if id.raw == "" {
		return []byte("null"), nil
	}
	return []byte(id.raw), nil
}

// UnmarshalJSON implements json.Unmarshaler. Numbers and strings are
// accepted; other JSON types are rejected.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ItemID{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a number or a string, got %s", data)
	}
	*id = ItemID{raw: n.String()}
	return nil
}

// ResultSet is one page of items plus the totals for the whole query.
type ResultSet struct {
	Items      []Item `json:"items"`
	TotalPages int    `json:"total_pages"`
	TotalItems int    `json:"total_items"`
}

// Page is the wire representation of a page returned by the collection service.
// Fields missing from a response decode to their zero values.
type Page struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
	TotalItems int    `json:"total_items"`
	TotalPages int    `json:"total_pages"`
}

// ResultSet converts the wire page into a ResultSet, normalizing nil items to
// an empty slice.
func (p Page) ResultSet() ResultSet {
	items := p.Items
	if items == nil {
		items = []Item{}
	}
	return ResultSet{
		Items:      items,
		TotalPages: p.TotalPages,
		TotalItems: p.TotalItems,
	}
}

// StatusKind enumerates the fetch lifecycle states.
type StatusKind int

const (
	// StatusIdle means no fetch has been issued yet.
	StatusIdle StatusKind = iota
	// StatusLoading means a fetch for the current query is in flight.
	StatusLoading
	// StatusSuccess means the current query resolved to a ResultSet.
	StatusSuccess
	// StatusFailure means the current query failed with a message.
	StatusFailure
)

// String implements fmt.Stringer.
func (k StatusKind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// FetchStatus is the outcome of the authoritative fetch cycle.
// Result is set only for StatusSuccess and Message only for StatusFailure.
type FetchStatus struct {
	Kind    StatusKind
	Result  *ResultSet
	Message string
}

// Idle returns the initial status.
func Idle() FetchStatus { return FetchStatus{Kind: StatusIdle} }

// Loading returns the in-flight status.
func Loading() FetchStatus { return FetchStatus{Kind: StatusLoading} }

// Success wraps a result set.
func Success(rs ResultSet) FetchStatus {
	return FetchStatus{Kind: StatusSuccess, Result: &rs}
}

// Failure wraps a human-readable error message.
func Failure(message string) FetchStatus {
	return FetchStatus{Kind: StatusFailure, Message: message}
}
