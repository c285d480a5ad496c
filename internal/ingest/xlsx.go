package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX parses the first sheet of an XLSX workbook into rows using
// the same fuzzy header mapping as CSV input.
func ReadXLSX(path string) ([]Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("ingest: empty xlsx sheet")
	}

	headers := rowToStrings(sheet.Rows[0])
	mapping := MapHeaders(headers)
	if len(mapping) == 0 {
		return nil, eris.New("ingest: no recognizable columns in header")
	}

	var rows []Row
	for i, r := range sheet.Rows[1:] {
		raw := rowFromRecord(rowToStrings(r), mapping)
		rows = append(rows, Row{Line: i + 2, Raw: raw, Invalid: !Valid(raw)})
	}
	return rows, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// Read dispatches on file extension: ".xlsx" is Excel, everything else
// is treated as delimiter-sniffed CSV.
func Read(path string) ([]Row, error) {
	if len(path) > 5 && path[len(path)-5:] == ".xlsx" {
		return ReadXLSX(path)
	}
	return ReadCSV(path)
}
