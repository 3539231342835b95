package model

// Evidence is one row of the evidence table: a single relation instance
// asserted by a paper. EvidenceID is assigned monotonically from the
// persisted table; the (CitationKey, SourceID, MorphismID, TargetID) tuple
// is unique regardless of Notes.
type Evidence struct {
	EvidenceID  int    `csv:"EvidenceID" json:"evidence_id"`
	CitationKey string `csv:"CitationKey" json:"citation_key"`
	SourceID    string `csv:"SourceID" json:"source_id"`
	MorphismID  string `csv:"MorphismID" json:"morphism_id"`
	TargetID    string `csv:"TargetID" json:"target_id"`
	Notes       string `csv:"Notes" json:"notes,omitempty"`
}

// EdgeKey is the composite uniqueness signature of the asserted relation.
// Notes are deliberately excluded: the same edge with different notes is
// still a duplicate.
func (e Evidence) EdgeKey() string {
	return e.CitationKey + "|" + e.SourceID + "|" + e.MorphismID + "|" + e.TargetID
}
