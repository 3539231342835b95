// Package model defines the four knowledge-base tables: papers, objects,
// morphisms, and evidence.
package model

// Paper is one row of the papers table. CitationKey is the primary key.
// An empty URL is a valid state: it marks the row as unresolved and is
// what the findurl pipeline resumes from.
type Paper struct {
	CitationKey string `csv:"CitationKey" json:"citation_key"`
	Authors     string `csv:"Authors" json:"authors"`
	Year        int    `csv:"Year" json:"year"`
	Title       string `csv:"Title" json:"title"`
	Publication string `csv:"Publication" json:"publication"`
	URL         string `csv:"URL" json:"url,omitempty"`
}

// Resolved reports whether the paper already has a PDF URL.
func (p Paper) Resolved() bool {
	return p.URL != ""
}
