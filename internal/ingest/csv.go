package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/arpalab/resolvit/internal/normalize"
)

// Row is one parsed input row with its original line number. Invalid
// rows are carried through so the batch can emit exactly one output row
// per input row.
type Row struct {
	Line    int
	Raw     normalize.RawRow
	Invalid bool
}

// sniffDelimiter counts candidate separators in the header line and
// picks the most frequent one, defaulting to comma.
func sniffDelimiter(header string) rune {
	best, bestCount := ',', strings.Count(header, ",")
	for _, cand := range []rune{';', '\t', '|'} {
		if n := strings.Count(header, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

// ReadCSV parses a delimiter-sniffed CSV file into rows using fuzzy
// header mapping.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	headerLine, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "ingest: read header")
	}
	headerLine = strings.TrimRight(headerLine, "\r\n")
	if strings.TrimSpace(headerLine) == "" {
		return nil, eris.New("ingest: empty input")
	}

	delim := sniffDelimiter(headerLine)

	headerReader := csv.NewReader(strings.NewReader(headerLine))
	headerReader.Comma = delim
	headers, err := headerReader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: parse header")
	}

	mapping := MapHeaders(headers)
	if len(mapping) == 0 {
		return nil, eris.New("ingest: no recognizable columns in header")
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// A malformed line still produces a row, marked invalid.
			rows = append(rows, Row{Line: line, Invalid: true})
			continue
		}
		raw := rowFromRecord(record, mapping)
		rows = append(rows, Row{Line: line, Raw: raw, Invalid: !Valid(raw)})
	}
	return rows, nil
}
