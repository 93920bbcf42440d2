package importer

import (
	"regexp"
	"strings"

	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/shopspring/decimal"
)

var consignorNumberPattern = regexp.MustCompile(`^\d{3}[A-Z]{2}\d$`)

// ValidateRow applies every field rule and records all violations in order.
// It never short-circuits: a row with a blank name and a bad price reports
// both. The error list is rebuilt from scratch on every call, so validating
// the same row twice yields identical results.
func ValidateRow(row *ImportRow) {
	var errs []string

	if strings.TrimSpace(row.Fields.Name) == "" {
		errs = append(errs, "Name is required")
	}

	price := strings.TrimSpace(row.Fields.Price)
	if price == "" {
		errs = append(errs, "Price is required")
	} else if d, err := decimal.NewFromString(price); err != nil || !d.IsPositive() {
		errs = append(errs, "Price must be a positive number")
	}

	number := strings.ToUpper(strings.TrimSpace(row.Fields.ConsignorNumber))
	if number == "" {
		errs = append(errs, "ConsignorNumber is required")
	} else if !consignorNumberPattern.MatchString(number) {
		errs = append(errs, "ConsignorNumber must match the format 3 digits + 2 letters + 1 digit (e.g. 472HK3)")
	}

	condition := strings.TrimSpace(row.Fields.Condition)
	if condition != "" {
		if _, ok := model.IsValidCondition(condition); !ok {
			errs = append(errs, "Condition must be one of: New, LikeNew, Good, Fair, Poor")
		}
	}

	row.Errors = errs
	row.IsValid = len(errs) == 0
}

// NormalizedConsignorNumber returns the uppercased code used for matching.
func NormalizedConsignorNumber(row *ImportRow) string {
	return strings.ToUpper(strings.TrimSpace(row.Fields.ConsignorNumber))
}
