package analyzer

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trondarild/ConCart/internal/model"
)

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "https://example.org/p.pdf", firstLine("https://example.org/p.pdf"))
	assert.Equal(t, "https://example.org/p.pdf", firstLine("\n\n  https://example.org/p.pdf  \ntrailing chatter"))
	assert.Equal(t, "NA", firstLine("NA\n"))
	assert.Equal(t, "", firstLine("\n   \n"))
}

func TestStripFences(t *testing.T) {
	body := `{"bibliographic": {}}`
	assert.Equal(t, body, stripFences(body))
	assert.Equal(t, body, stripFences("```json\n"+body+"\n```"))
	assert.Equal(t, body, stripFences("```\n"+body+"\n```"))
	assert.Equal(t, body, stripFences("  ```json\n"+body+"\n```  "))
}

const sampleReply = `{
  "bibliographic": {
    "authors": "John Smith, Jane Doe",
    "year": 2023,
    "title": "Predictive coding and rivalry",
    "publication": "Journal of Theoretical Neuroscience"
  },
  "new_objects": [
    {
      "ObjectID": "theory:predictive_coding",
      "Name": "Predictive coding",
      "Type": "Theory",
      "Description": "Brains minimize prediction error."
    }
  ],
  "new_evidence": [
    {
      "SourceID": "theory:predictive_coding",
      "MorphismID": "explains",
      "TargetID": "phenomenon:binocular_rivalry",
      "Notes": "section 4"
    }
  ]
}`

func TestDecodeExtraction(t *testing.T) {
	ex, err := decodeExtraction(sampleReply)
	require.NoError(t, err)

	assert.Equal(t, "John Smith, Jane Doe", ex.Bibliographic.Authors)
	assert.Equal(t, 2023, ex.Bibliographic.Year)
	require.Len(t, ex.NewObjects, 1)
	assert.Equal(t, "theory:predictive_coding", ex.NewObjects[0].ObjectID)
	assert.Equal(t, model.TypeTheory, ex.NewObjects[0].Type)
	require.Len(t, ex.NewEvidence, 1)
	assert.Equal(t, "explains", ex.NewEvidence[0].MorphismID)
}

func TestDecodeExtractionFenced(t *testing.T) {
	ex, err := decodeExtraction("```json\n" + sampleReply + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "Predictive coding and rivalry", ex.Bibliographic.Title)
}

func TestDecodeExtractionInvalid(t *testing.T) {
	for name, reply := range map[string]string{
		"not json":      "I'm sorry, I cannot analyze this document.",
		"truncated":     sampleReply[:len(sampleReply)/2],
		"missing title": `{"bibliographic": {"authors": "A", "year": 2023}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeExtraction(reply)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrParse))
		})
	}
}
