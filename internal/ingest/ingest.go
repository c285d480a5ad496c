// Package ingest reads batch input tables (CSV, XLSX) into raw rows
// with fuzzy header mapping.
package ingest

import (
	"strings"

	"github.com/arpalab/resolvit/internal/normalize"
)

// Field identifies a mapped input column.
type Field string

const (
	FieldName     Field = "company_name"
	FieldCity     Field = "city"
	FieldProvince Field = "province"
	FieldAddress  Field = "address"
	FieldPhone    Field = "phone"
	FieldVAT      Field = "vat"
	FieldURL      Field = "url"
)

// headerHints maps lowercase substrings of a header cell to the field
// it denotes. First hit wins, in declaration order.
var headerHints = []struct {
	field Field
	hints []string
}{
	{FieldName, []string{"ragione", "azienda", "company", "denominazione", "nome"}},
	{FieldProvince, []string{"provincia", "prov"}},
	{FieldCity, []string{"citta", "città", "comune", "city", "localita"}},
	{FieldAddress, []string{"indirizzo", "address", "via"}},
	{FieldPhone, []string{"telefono", "phone", "tel", "cellulare"}},
	{FieldVAT, []string{"partita", "p.iva", "piva", "vat"}},
	{FieldURL, []string{"sito", "website", "url", "web"}},
}

// MapHeaders assigns a Field to each header column it recognizes.
// Unrecognized columns are ignored.
func MapHeaders(headers []string) map[int]Field {
	out := make(map[int]Field)
	taken := make(map[Field]bool)
	for i, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, hint := range headerHints {
			if taken[hint.field] {
				continue
			}
			for _, sub := range hint.hints {
				if strings.Contains(lower, sub) {
					out[i] = hint.field
					taken[hint.field] = true
					break
				}
			}
			if _, ok := out[i]; ok {
				break
			}
		}
	}
	return out
}

// rowFromRecord builds a RawRow from one record given the column mapping.
func rowFromRecord(record []string, mapping map[int]Field) normalize.RawRow {
	var row normalize.RawRow
	for i, field := range mapping {
		if i >= len(record) {
			continue
		}
		val := strings.TrimSpace(record[i])
		switch field {
		case FieldName:
			row.CompanyName = val
		case FieldCity:
			row.City = val
		case FieldProvince:
			row.Province = val
		case FieldAddress:
			row.Address = val
		case FieldPhone:
			row.Phones = val
		case FieldVAT:
			row.VATID = val
		case FieldURL:
			row.SourceURL = val
		}
	}
	return row
}

// Valid reports whether a raw row has enough identity to enter the
// pipeline: a company name plus at least one identifying signal.
func Valid(row normalize.RawRow) bool {
	if strings.TrimSpace(row.CompanyName) == "" {
		return false
	}
	return row.Phones != "" || row.Address != "" || row.City != "" || row.SourceURL != ""
}
