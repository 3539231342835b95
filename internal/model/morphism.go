package model

// Morphism is one row of the morphisms table: a predefined relation kind
// connecting two object types. The vocabulary is supplied up front (see the
// init command) and is read-only for both pipelines; extracted evidence is
// validated against it but never extends it.
type Morphism struct {
	MorphismID string `csv:"MorphismID" json:"MorphismID" yaml:"id"`
	SourceType string `csv:"SourceType" json:"SourceType" yaml:"source_type"`
	TargetType string `csv:"TargetType" json:"TargetType" yaml:"target_type"`
	Label      string `csv:"Label" json:"Label" yaml:"label"`
}
