package handler

import (
	"strings"

	dErrors "gatezero/pkg/domain-errors"
	stringutil "gatezero/pkg/platform/strings"
)

const maxVehicleNoLength = 20

// VerifyRequest is the HTTP request body for POST /dispatch/verify.
type VerifyRequest struct {
	VehicleNo  string `json:"vehicle_no"`
	EWayBillNo string `json:"eway_bill_no"`
	OperatorID string `json:"operator_id"`
}

// Validate normalizes the request. Only the plate is validated here; a
// malformed e-way bill number is a BLOCKED verdict, not a bad request.
func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.VehicleNo = strings.ToUpper(strings.TrimSpace(r.VehicleNo))
	if err := validateVehicleNo(r.VehicleNo); err != nil {
		return err
	}
	r.EWayBillNo = strings.TrimSpace(r.EWayBillNo)
	r.OperatorID = strings.TrimSpace(r.OperatorID)
	return nil
}

// BatchVerifyRequest is the HTTP request body for POST /dispatch/verify/batch.
type BatchVerifyRequest struct {
	VehicleNos []string `json:"vehicle_nos"`
	EWayBillNo string   `json:"eway_bill_no"`
	OperatorID string   `json:"operator_id"`
}

// Validate trims, uppercases and deduplicates the plates. The batch size
// limit is enforced by the handler.
func (r *BatchVerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.VehicleNos = stringutil.DedupeAndTrimUpper(r.VehicleNos)
	if len(r.VehicleNos) == 0 {
		return dErrors.New(dErrors.CodeValidation, "vehicle_nos is required")
	}
	for _, v := range r.VehicleNos {
		if err := validateVehicleNo(v); err != nil {
			return err
		}
	}
	r.EWayBillNo = strings.TrimSpace(r.EWayBillNo)
	r.OperatorID = strings.TrimSpace(r.OperatorID)
	return nil
}

func validateVehicleNo(v string) error {
	if v == "" {
		return dErrors.New(dErrors.CodeValidation, "vehicle_no is required")
	}
	if len(v) > maxVehicleNoLength {
		return dErrors.New(dErrors.CodeValidation, "vehicle_no must be at most 20 characters")
	}
	return nil
}
