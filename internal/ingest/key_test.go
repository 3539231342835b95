package ingest

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name    string
		authors string
		year    int
		want    string
	}{
		{"first and last name", "John Smith, Jane Doe", 2023, "Smith2023"},
		{"citation style", "Smith, J., Doe, A.", 2023, "Smith2023"},
		{"citation style apostrophe", "O'Brien, P.", 2021, "OBrien2021"},
		{"single author", "Jane Doe", 2021, "Doe2021"},
		{"surname only", "Friston", 2010, "Friston2010"},
		{"apostrophe stripped", "Patrick O'Brien", 2021, "OBrien2021"},
		{"hyphen stripped", "Maria Garcia-Lopez", 2019, "GarciaLopez2019"},
		{"diacritics folded", "Peter Gärdenfors", 2004, "Gardenfors2004"},
		{"middle names ignored", "Anne-Laure van der Berg, Someone Else", 2020, "Berg2020"},
		{"whitespace trimmed", "  John Smith , Jane Doe", 2023, "Smith2023"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveKey(tt.authors, tt.year)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveKeyFailure(t *testing.T) {
	tests := []struct {
		name    string
		authors string
		year    int
	}{
		{"missing year", "John Smith", 0},
		{"empty authors", "", 2023},
		{"blank authors", "   ", 2023},
		{"punctuation-only surname", "!!!", 2023},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKey(tt.authors, tt.year)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrNoKey))
		})
	}
}
