package importer

import (
	"strings"

	"github.com/avelore/consignpos-import-service/internal/model"
)

// ConsignorLookup resolves uppercased consignor codes against a directory
// snapshot. It is rebuilt from a fresh snapshot on every ingestion and never
// mutated afterwards.
type ConsignorLookup struct {
	byCode map[string]model.Consignor
}

// BuildConsignorLookup indexes a directory snapshot by uppercased code.
// Duplicate codes are a directory defect; the last entry wins here.
func BuildConsignorLookup(consignors []model.Consignor) *ConsignorLookup {
	byCode := make(map[string]model.Consignor, len(consignors))
	for _, c := range consignors {
		byCode[strings.ToUpper(c.Code)] = c
	}
	return &ConsignorLookup{byCode: byCode}
}

// Resolve returns the directory entry for a code. An unresolved code is not
// an error: the row is staged without a consignor and assigned manually.
func (l *ConsignorLookup) Resolve(code string) (model.Consignor, bool) {
	c, ok := l.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

func (l *ConsignorLookup) Size() int {
	return len(l.byCode)
}
