package ports

import "context"

// TaxStatus is the registration state reported for a tax id.
type TaxStatus string

const (
	TaxStatusUnknown     TaxStatus = ""
	TaxStatusActive      TaxStatus = "active"
	TaxStatusUnderReview TaxStatus = "under_review"
)

// TaxStatusPort looks up whether a tax id is in good standing. Implementations
// may call an external registry; the engine treats any error as under review.
type TaxStatusPort interface {
	Status(ctx context.Context, taxID string) (TaxStatus, error)
}
