package importer

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// TemplateColumns is the recognized header set, in the order the template
// file presents them.
var TemplateColumns = []string{
	"Name", "Description", "SKU", "Price", "ConsignorNumber",
	"Category", "Condition", "ReceivedDate", "Location", "Notes",
}

// ErrorReportCSV renders the rejected rows as a downloadable report. These
// files are operator feedback only and are never re-ingested.
func ErrorReportCSV(rows []ImportRow) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write([]string{"RowNumber", "OriginalData", "Errors"})
	for _, row := range rows {
		if row.IsValid {
			continue
		}
		_ = w.Write([]string{
			strconv.Itoa(row.RowNumber),
			row.Raw,
			strings.Join(row.Errors, "; "),
		})
	}
	w.Flush()
	return sb.String()
}

// TemplateCSV returns the upload template: the recognized header row plus one
// example row.
func TemplateCSV() string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write(TemplateColumns)
	_ = w.Write([]string{
		"Blue Denim Jacket", "Light wash, size M", "BDJ-001", "45.00", "472HK3",
		"Outerwear", "Good", "2025-06-01", "Rack 12", "Drop-off batch A",
	})
	w.Flush()
	return sb.String()
}
