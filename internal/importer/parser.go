package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
	"unicode"

	"github.com/avelore/consignpos-import-service/internal/httputil"
)

// RowFields is the fixed set of recognized columns plus a passthrough bucket
// for anything else the file carries. Unrecognized columns are kept, never
// rejected.
type RowFields struct {
	Name            string
	Description     string
	SKU             string
	Price           string
	ConsignorNumber string
	Category        string
	Condition       string
	ReceivedDate    string
	Location        string
	Notes           string
	Extra           map[string]string
}

// ImportRow is an ephemeral, not-yet-staged candidate produced from one data
// line. It is discarded once staged or rejected.
type ImportRow struct {
	RowNumber int // 1-based position in the original file (header is row 1)
	Fields    RowFields
	Raw       string
	IsValid   bool
	Errors    []string
}

// ParseResult carries the canonicalized header and the parsed data rows.
type ParseResult struct {
	Columns []string
	Rows    []ImportRow
}

// ParseCSV turns a raw UTF-8 file body into ordered rows. Lines are split on
// \n, blank lines are dropped, and fields are tokenized on commas with
// double-quote escaping ("" inside a quoted field is a literal quote).
func ParseCSV(content string) (*ParseResult, error) {
	content = strings.TrimPrefix(content, "\uFEFF")

	lines := strings.Split(content, "\n")

	type numbered struct {
		lineNo int
		text   string
	}
	var kept []numbered
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, numbered{lineNo: i + 1, text: line})
	}

	if len(kept) < 2 {
		return nil, fmt.Errorf("%w: file must contain a header row and at least one data row", httputil.ErrFormat)
	}

	header, err := tokenize(kept[0].text)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable header row: %v", httputil.ErrFormat, err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = canonicalKey(name)
	}

	rows := make([]ImportRow, 0, len(kept)-1)
	for _, ln := range kept[1:] {
		tokens, err := tokenize(ln.text)
		if err != nil {
			rows = append(rows, ImportRow{
				RowNumber: ln.lineNo,
				Raw:       ln.text,
				Errors:    []string{fmt.Sprintf("Unparseable row: %v", err)},
			})
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		fields := RowFields{}
		for i, value := range tokens {
			if i >= len(columns) {
				break
			}
			setField(&fields, columns[i], value)
		}

		rows = append(rows, ImportRow{
			RowNumber: ln.lineNo,
			Fields:    fields,
			Raw:       ln.text,
		})
	}

	return &ParseResult{Columns: columns, Rows: rows}, nil
}

func tokenize(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	record, err := r.Read()
	if err != nil {
		return nil, err
	}

	// Only unquoted fields get trimmed; quoting is how a value keeps its
	// whitespace through a round trip.
	quoted := quotedFields(line, len(record))
	for i := range record {
		if !quoted[i] {
			record[i] = strings.TrimSpace(record[i])
		}
	}
	return record, nil
}

// quotedFields reports, per field of the raw line, whether the field was
// double-quoted. Mirrors the reader's handling of leading whitespace and ""
// escapes.
func quotedFields(line string, n int) []bool {
	quoted := make([]bool, n)
	i := 0
	for field := 0; field < n && i <= len(line); field++ {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i < len(line) && line[i] == '"' {
			quoted[field] = true
			i++
			for i < len(line) {
				if line[i] == '"' {
					if i+1 < len(line) && line[i+1] == '"' {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		}
		for i < len(line) && line[i] != ',' {
			i++
		}
		i++
	}
	return quoted
}

// canonicalKey lowers the first rune of a column name: "ConsignorNumber"
// becomes "consignorNumber".
func canonicalKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// setField routes a value to its recognized slot, matching the canonical key
// case-insensitively. Anything unrecognized lands in Extra.
func setField(f *RowFields, key, value string) {
	switch strings.ToLower(key) {
	case "name":
		f.Name = value
	case "description":
		f.Description = value
	case "sku":
		f.SKU = value
	case "price":
		f.Price = value
	case "consignornumber":
		f.ConsignorNumber = value
	case "category":
		f.Category = value
	case "condition":
		f.Condition = value
	case "receiveddate":
		f.ReceivedDate = value
	case "location":
		f.Location = value
	case "notes":
		f.Notes = value
	default:
		if f.Extra == nil {
			f.Extra = map[string]string{}
		}
		f.Extra[key] = value
	}
}
