package kb

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/trondarild/ConCart/internal/model"
)

// PaperFile is the findurl pipeline's view of a papers table: one input
// file and one output file. Load prefers the output file so an interrupted
// run resumes from its own progress; a missing output file is not an error,
// it just means a fresh start from the input. Save always rewrites the
// output file, leaving the input untouched.
type PaperFile struct {
	input  string
	output string
}

// NewPaperFile creates a resumable papers table over input/output paths.
func NewPaperFile(input, output string) *PaperFile {
	return &PaperFile{input: input, output: output}
}

// Load returns the rows to process. Returns ErrNotFound (wrapped) only if
// neither file exists.
func (f *PaperFile) Load(ctx context.Context) ([]model.Paper, bool, error) {
	if _, err := os.Stat(f.output); err == nil {
		rows, err := readTable[model.Paper](ctx, f.output)
		if err != nil {
			return nil, false, err
		}
		return rows, true, nil
	}

	rows, err := readTable[model.Paper](ctx, f.input)
	if err != nil {
		return nil, false, eris.Wrapf(err, "kb: input table %s", f.input)
	}
	return rows, false, nil
}

// Save rewrites the output table atomically.
func (f *PaperFile) Save(ctx context.Context, rows []model.Paper) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "kb: context cancelled")
	}
	return writeTable(f.output, rows)
}
