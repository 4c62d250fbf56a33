package printjob

import (
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// Quote computes the cost of printing billablePages pages at the given
// price per page: an exact decimal product, no rounding beyond standard
// currency precision. Negative page counts are rejected.
func Quote(billablePages int, pricePerPage valueobject.Money) (valueobject.Money, error) {
	if billablePages < 0 {
		return valueobject.Money{}, shared.NewDomainError("INVALID_INPUT", "Billable page count cannot be negative")
	}
	return pricePerPage.MulInt(int64(billablePages)), nil
}
