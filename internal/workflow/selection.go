package workflow

import "orgdesk/internal/models"

// StatusRecord pairs an approval id with its last-known status, as held by a
// client selection.
type StatusRecord struct {
	ID     uint                  `json:"id"`
	Status models.ApprovalStatus `json:"status"`
}

// Eligibility is the tri-state flag set driving bulk-action affordances. For
// a non-empty selection exactly one of the three holds.
type Eligibility struct {
	AllPending    bool `json:"all_pending"`
	AllNotPending bool `json:"all_not_pending"`
	IsMixed       bool `json:"is_mixed"`
}

// ComputeEligibility derives the tri-state flags from a set of statuses.
// An empty set leaves both All* flags vacuously true; callers must guard
// empty selections explicitly.
func ComputeEligibility(statuses []models.ApprovalStatus) Eligibility {
	e := Eligibility{AllPending: true, AllNotPending: true}
	for _, s := range statuses {
		if s == models.ApprovalStatusPending {
			e.AllNotPending = false
		} else {
			e.AllPending = false
		}
	}
	e.IsMixed = !e.AllPending && !e.AllNotPending
	return e
}

// Selection tracks the set of approval ids the user has chosen for a bulk
// action. It is owned by a single session and is never persisted; it keeps
// insertion order so bulk results can be reported in the order records were
// picked.
type Selection struct {
	order []uint
	ids   map[uint]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[uint]struct{})}
}

// Toggle adds id if absent, removes it if present.
func (s *Selection) Toggle(id uint) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

// SelectAll replaces the selection wholesale, dropping duplicates.
func (s *Selection) SelectAll(ids []uint) {
	s.Clear()
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.order = nil
	s.ids = make(map[uint]struct{})
}

// Has reports whether id is selected.
func (s *Selection) Has(id uint) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.order)
}

// IDs returns the selected ids in insertion order.
func (s *Selection) IDs() []uint {
	out := make([]uint, len(s.order))
	copy(out, s.order)
	return out
}

// Eligibility derives the tri-state flags from the given records. Records are
// passed in rather than looked up so the selection stays free of storage
// concerns; callers supply the freshest statuses they hold.
func (s *Selection) Eligibility(records []StatusRecord) Eligibility {
	statuses := make([]models.ApprovalStatus, 0, len(records))
	for _, r := range records {
		statuses = append(statuses, r.Status)
	}
	return ComputeEligibility(statuses)
}
