package adapters

import (
	"context"

	"gatezero/internal/dispatch/ports"
)

// StaticTaxStatus reports every tax id as active. It stands in until a real
// GST registry integration exists.
type StaticTaxStatus struct{}

// NewStaticTaxStatus constructs the default tax status adapter.
func NewStaticTaxStatus() *StaticTaxStatus {
	return &StaticTaxStatus{}
}

func (StaticTaxStatus) Status(ctx context.Context, _ string) (ports.TaxStatus, error) {
	if err := ctx.Err(); err != nil {
		return ports.TaxStatusUnknown, err
	}
	return ports.TaxStatusActive, nil
}
