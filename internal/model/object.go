package model

// ObjectType classifies a knowledge-base object.
type ObjectType string

const (
	TypeTheory     ObjectType = "Theory"
	TypePhenomenon ObjectType = "Phenomenon"
	TypeMethod     ObjectType = "Method"
	TypeConcept    ObjectType = "Concept"
)

// Valid reports whether t is one of the four allowed object types.
func (t ObjectType) Valid() bool {
	switch t {
	case TypeTheory, TypePhenomenon, TypeMethod, TypeConcept:
		return true
	}
	return false
}

// Object is one row of the objects table: a theory, phenomenon, method, or
// concept. ObjectID is the primary key, namespaced as "<type>:<slug>"
// (e.g. "theory:predictive_coding"). Objects are immutable once inserted;
// a later extraction that reuses an existing ID never overwrites the row.
type Object struct {
	ObjectID    string     `csv:"ObjectID" json:"ObjectID"`
	Name        string     `csv:"Name" json:"Name"`
	Type        ObjectType `csv:"Type" json:"Type"`
	Description string     `csv:"Description" json:"Description"`
}
