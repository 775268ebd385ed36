package flagstatus

import "slices"

// maxRecent caps recent_proclamations.
const maxRecent = 10

// ProclamationIndex lists the proclamations currently in effect and the
// most recently seen ones. Both lists always encode as JSON arrays.
type ProclamationIndex struct {
	ActiveProclamations []string `json:"active_proclamations"`
	RecentProclamations []string `json:"recent_proclamations"`
	LastUpdated         string   `json:"last_updated"`
}

// NewIndex returns an empty index.
func NewIndex() ProclamationIndex {
	return ProclamationIndex{
		ActiveProclamations: []string{},
		RecentProclamations: []string{},
	}
}

// Apply folds a freshly normalized status into the index.
//
// A half-staff record with a proclamation id joins the active set if absent;
// any other record clears the active set entirely, including half-staff
// records that arrived without an id. A record with an id lands at the head
// of the recent list unless already present anywhere in it, and the list is
// trimmed to the newest ten.
func (ix *ProclamationIndex) Apply(st FlagStatus) {
	if ix.ActiveProclamations == nil {
		ix.ActiveProclamations = []string{}
	}
	if ix.RecentProclamations == nil {
		ix.RecentProclamations = []string{}
	}
	id := st.ProclamationID
	if st.HalfStaff() && id != "" {
		if !slices.Contains(ix.ActiveProclamations, id) {
			ix.ActiveProclamations = append(ix.ActiveProclamations, id)
		}
	} else {
		ix.ActiveProclamations = []string{}
	}
	if id != "" && !slices.Contains(ix.RecentProclamations, id) {
		ix.RecentProclamations = append([]string{id}, ix.RecentProclamations...)
		if len(ix.RecentProclamations) > maxRecent {
			ix.RecentProclamations = ix.RecentProclamations[:maxRecent]
		}
	}
	ix.LastUpdated = st.LastUpdated
}
