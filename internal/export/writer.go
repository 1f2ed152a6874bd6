package export

import (
	"context"
	"path/filepath"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// DocumentFileName is the base name of the full inventory tree.
const DocumentFileName = "aws_inventory"

// Writer writes each inventory document into a directory: the tree as
// aws_inventory.<ext> and, when CSV is set, one <type>.csv per resource type.
type Writer struct {
	Dir    string
	Format Format
	CSV    bool
}

// DocumentPath returns the path of the tree file.
func (w *Writer) DocumentPath() string {
	return filepath.Join(w.Dir, DocumentFileName+"."+w.Format.Ext())
}

// TablePath returns the path of the CSV table for t.
func (w *Writer) TablePath(t resource.Type) string {
	return filepath.Join(w.Dir, t.String()+".csv")
}

// Emit writes the document files.
func (w *Writer) Emit(_ context.Context, doc resource.Document) error {
	if err := ExportDocument(w.DocumentPath(), doc, w.Format); err != nil {
		return err
	}
	if !w.CSV {
		return nil
	}
	for _, t := range resource.Types() {
		if _, err := ExportTable(w.TablePath(t), doc, t); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; every file is closed after writing.
func (w *Writer) Close() error {
	return nil
}
