package detection

// Selection is the set of label ids chosen for display.
//
// The zero value is an empty selection. Selections are never modified in
// place; every mutating method returns a new value.
type Selection struct {
	ids map[int]struct{}
}

// SelectAll returns a selection containing every label in r.
func SelectAll(r *Result) Selection {
	return SelectIDs(r.IDs()...)
}

// SelectIDs returns a selection containing exactly the given ids.
func SelectIDs(ids ...int) Selection {
	s := Selection{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected.
func (s Selection) Has(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s Selection) Len() int {
	return len(s.ids)
}

// With returns a copy of s that also contains id.
func (s Selection) With(id int) Selection {
	out := s.clone()
	out.ids[id] = struct{}{}
	return out
}

// Without returns a copy of s that does not contain id.
func (s Selection) Without(id int) Selection {
	out := s.clone()
	delete(out.ids, id)
	return out
}

// Toggle returns a copy of s with id added if absent or removed if present.
func (s Selection) Toggle(id int) Selection {
	if s.Has(id) {
		return s.Without(id)
	}
	return s.With(id)
}

// Equal reports whether both selections contain the same ids.
func (s Selection) Equal(other Selection) bool {
	if s.Len() != other.Len() {
		return false
	}
	for id := range s.ids {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// Labels returns the selected labels of r in result order.
//
// Ids that are not present in r are ignored.
func (s Selection) Labels(r *Result) []Label {
	if r == nil {
		return nil
	}
	out := make([]Label, 0, s.Len())
	for _, l := range r.Labels {
		if s.Has(l.ID) {
			out = append(out, l)
		}
	}
	return out
}

// IDs returns the selected ids of r in result order.
func (s Selection) IDs(r *Result) []int {
	labels := s.Labels(r)
	ids := make([]int, 0, len(labels))
	for _, l := range labels {
		ids = append(ids, l.ID)
	}
	return ids
}

func (s Selection) clone() Selection {
	out := Selection{ids: make(map[int]struct{}, len(s.ids)+1)}
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	return out
}
