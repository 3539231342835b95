package analyzer

import (
	"fmt"
	"strings"
)

const lookupPrompt = `Find a direct, publicly accessible PDF URL for the academic paper titled '%s' by %s (%d). Prioritize links from university repositories, arXiv, or official publisher sites. Respond with only the full URL. If no direct PDF link can be found, respond with exactly 'NA'.`

const analyzeSystem = `You are an expert academic research assistant specializing in the philosophy of science and formal modeling. You analyze research papers and extract structured information for a categorical database of a scientific field.`

// extractionSchema is shown to the model verbatim; field names match the
// Extraction struct's json tags.
const extractionSchema = `{
  "bibliographic": {
    "authors": "Full list of authors, comma-separated",
    "year": 2024,
    "title": "The full title of the paper",
    "publication": "The journal or conference name"
  },
  "new_objects": [
    {
      "ObjectID": "type:unique_id",
      "Name": "Human-readable name",
      "Type": "Theory|Phenomenon|Method|Concept",
      "Description": "A one-sentence description."
    }
  ],
  "new_evidence": [
    {
      "SourceID": "ObjectID of the source object",
      "MorphismID": "MorphismID of the relationship",
      "TargetID": "ObjectID of the target object",
      "Notes": "Optional brief quote or context from the paper."
    }
  ]
}`

// buildLookupPrompt renders the short PDF-link query.
func buildLookupPrompt(title, authors string, year int) string {
	return fmt.Sprintf(lookupPrompt, title, authors, year)
}

// buildAnalyzePrompt renders the document-analysis instructions with the
// current vocabulary embedded, so the model reuses existing ObjectIDs and
// only asserts relations from the predefined morphism set.
func buildAnalyzePrompt(vocab Vocabulary) string {
	var objects strings.Builder
	for _, o := range vocab.Objects {
		fmt.Fprintf(&objects, "- %s: %s\n", o.ObjectID, o.Name)
	}
	var morphisms strings.Builder
	for _, m := range vocab.Morphisms {
		fmt.Fprintf(&morphisms, "- %s: Connects '%s' to '%s' (Label: %s)\n",
			m.MorphismID, m.SourceType, m.TargetType, m.Label)
	}

	var b strings.Builder
	b.WriteString(`Analyze the attached research paper PDF and extract structured information.

INSTRUCTIONS:

1. Read the paper to understand its main arguments, methods, and conclusions.

2. Extract bibliographic data: authors, year, title, and publication venue.

3. Identify the core theories, phenomena, methods, and concepts discussed.
   Before creating a new object, check whether a similar one already exists
   in the EXISTING OBJECTS list below; if so, USE THE EXISTING ObjectID.
   A genuinely new concept gets a new object with an ObjectID of the form
   type:unique_id (e.g. theory:predictive_coding). Type must be one of
   Theory, Phenomenon, Method, Concept.

4. Identify the paper's main claims as directed relations between objects:
   (Source Object) --[Relationship]--> (Target Object). The Relationship
   MUST be one of the predefined MorphismIDs from the EXISTING MORPHISMS
   list below. Source and Target use ObjectIDs, existing or newly defined.

5. Return ONLY a single valid JSON object following the schema. No other
   text or explanation.

---
EXISTING OBJECTS (use these IDs where possible):
`)
	b.WriteString(objects.String())
	b.WriteString(`---
EXISTING MORPHISMS (use these IDs for relationships):
`)
	b.WriteString(morphisms.String())
	b.WriteString(`---
JSON OUTPUT SCHEMA (your response MUST follow this format):
`)
	b.WriteString(extractionSchema)
	b.WriteString("\n---\n\nNow analyze the attached PDF and generate the complete JSON object.\n")
	return b.String()
}
