// api/model/stats.go
package model

// SourceStats holds the per-source reconciliation counts between the
// authoritative review table and the latest fresh snapshot.
type SourceStats struct {
	Source   Source `json:"source"`
	Total    int    `json:"total"`
	Fresh    int    `json:"fresh"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
	Pending  int    `json:"pending"`
	Added    int    `json:"added"`
	Removed  int    `json:"removed"`
	Modified int    `json:"modified"`
}

// ReconciliationStats is computed on demand and never persisted.
type ReconciliationStats struct {
	Application string        `json:"application"`
	Frequency   string        `json:"frequency"`
	Period      string        `json:"period"`
	Sources     []SourceStats `json:"sources"`
}

func (s *ReconciliationStats) Totals() SourceStats {
	var t SourceStats
	for _, src := range s.Sources {
		t.Total += src.Total
		t.Fresh += src.Fresh
		t.Approved += src.Approved
		t.Rejected += src.Rejected
		t.Pending += src.Pending
		t.Added += src.Added
		t.Removed += src.Removed
		t.Modified += src.Modified
	}
	return t
}
