// Package export writes the knowledge base to a single XLSX workbook, one
// sheet per table, for reading in a spreadsheet.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/trondarild/ConCart/internal/model"
)

// Tables is a full in-memory snapshot of the knowledge base.
type Tables struct {
	Papers    []model.Paper
	Objects   []model.Object
	Morphisms []model.Morphism
	Evidence  []model.Evidence
}

// WriteXLSX writes all four tables to path.
func WriteXLSX(t Tables, path string) error {
	f := xlsx.NewFile()

	if err := addSheet(f, "Papers",
		[]string{"CitationKey", "Authors", "Year", "Title", "Publication", "URL"},
		len(t.Papers), func(i int) []string {
			p := t.Papers[i]
			return []string{p.CitationKey, p.Authors, strconv.Itoa(p.Year), p.Title, p.Publication, p.URL}
		}); err != nil {
		return err
	}

	if err := addSheet(f, "Objects",
		[]string{"ObjectID", "Name", "Type", "Description"},
		len(t.Objects), func(i int) []string {
			o := t.Objects[i]
			return []string{o.ObjectID, o.Name, string(o.Type), o.Description}
		}); err != nil {
		return err
	}

	if err := addSheet(f, "Morphisms",
		[]string{"MorphismID", "SourceType", "TargetType", "Label"},
		len(t.Morphisms), func(i int) []string {
			m := t.Morphisms[i]
			return []string{m.MorphismID, m.SourceType, m.TargetType, m.Label}
		}); err != nil {
		return err
	}

	if err := addSheet(f, "Evidence",
		[]string{"EvidenceID", "CitationKey", "SourceID", "MorphismID", "TargetID", "Notes"},
		len(t.Evidence), func(i int) []string {
			e := t.Evidence[i]
			return []string{strconv.Itoa(e.EvidenceID), e.CitationKey, e.SourceID, e.MorphismID, e.TargetID, e.Notes}
		}); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func addSheet(f *xlsx.File, name string, header []string, n int, row func(int) []string) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().Value = h
	}
	for i := 0; i < n; i++ {
		r := sheet.AddRow()
		for _, v := range row(i) {
			r.AddCell().Value = v
		}
	}
	return nil
}
