package nostr

// ReqFilter is a subscription predicate (NIP-01). Every field is optional;
// an omitted field matches all events. Filters within the same REQ frame
// are unioned together.
type ReqFilter struct {
	IDs     []ID     `json:"ids,omitempty"`
	Authors []PubKey `json:"authors,omitempty"`
	Kinds   []Kind   `json:"kinds,omitempty"`
	E       []string `json:"#e,omitempty"`
	P       []string `json:"#p,omitempty"`
	Since   *Timestamp `json:"since,omitempty"`
	Until   *Timestamp `json:"until,omitempty"`
	Limit   *int     `json:"limit,omitempty"`
}

// Matches reports whether evt satisfies every constraint present in f.
func (f ReqFilter) Matches(evt Event) bool {
	if f.IDs != nil && !containsID(f.IDs, evt.ID) {
		return false
	}
	if f.Kinds != nil && !containsKind(f.Kinds, evt.Kind) {
		return false
	}
	if f.Authors != nil && !containsPubKey(f.Authors, evt.PubKey) {
		return false
	}
	if f.E != nil && !evt.Tags.ContainsAny("e", f.E) {
		return false
	}
	if f.P != nil && !evt.Tags.ContainsAny("p", f.P) {
		return false
	}
	if f.Since != nil && evt.CreatedAt < *f.Since {
		return false
	}
	if f.Until != nil && evt.CreatedAt > *f.Until {
		return false
	}
	return true
}

func containsID(ids []ID, id ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func containsPubKey(pks []PubKey, pk PubKey) bool {
	for _, x := range pks {
		if x == pk {
			return true
		}
	}
	return false
}

// MatchesAny reports whether evt satisfies at least one filter in filters
// (the union semantics REQ frames carry with more than one filter). An
// empty filter list matches nothing.
func MatchesAny(filters []ReqFilter, evt Event) bool {
	for _, f := range filters {
		if f.Matches(evt) {
			return true
		}
	}
	return false
}
