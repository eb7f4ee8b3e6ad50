package handler

import (
	"time"

	"gatezero/internal/dispatch"
	"gatezero/internal/domain"
)

// VerifyResponse is the HTTP response for a single verification.
type VerifyResponse struct {
	ID              string                  `json:"id"`
	VehicleNo       string                  `json:"vehicle_no"`
	EWayBillNo      string                  `json:"eway_bill_no"`
	Verdict         domain.Verdict          `json:"verdict"`
	Reasons         []string                `json:"reasons"`
	Checks          []CheckResponse         `json:"checks"`
	ComplianceScore int                     `json:"compliance_score"`
	HasWarnings     bool                    `json:"has_warnings"`
	Timestamp       time.Time               `json:"timestamp"`
	ScanDurationMS  int64                   `json:"scan_duration_ms"`
	QRCodeHash      *string                 `json:"qr_code_hash"`
	VehicleSnapshot *domain.VehicleSnapshot `json:"vehicle_snapshot"`
	DriverSnapshot  *domain.DriverSnapshot  `json:"driver_snapshot"`
}

// CheckResponse is one entry of the check battery.
type CheckResponse struct {
	Name      domain.CheckName   `json:"name"`
	Status    domain.CheckStatus `json:"status"`
	Details   string             `json:"details"`
	Timestamp time.Time          `json:"timestamp"`
}

// BatchVerifyResponse is the HTTP response for POST /dispatch/verify/batch.
type BatchVerifyResponse struct {
	Results  []*VerifyResponse `json:"results"`
	Total    int               `json:"total"`
	Approved int               `json:"approved"`
	Blocked  int               `json:"blocked"`
}

// FromResult converts a dispatch result into its HTTP response.
func FromResult(result *dispatch.Result) *VerifyResponse {
	checks := make([]CheckResponse, 0, len(result.Checks))
	for _, c := range result.Checks {
		checks = append(checks, CheckResponse(c))
	}
	reasons := result.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return &VerifyResponse{
		ID:              result.ID.String(),
		VehicleNo:       result.VehicleNo,
		EWayBillNo:      result.EWayBillNo,
		Verdict:         result.Verdict,
		Reasons:         reasons,
		Checks:          checks,
		ComplianceScore: result.ComplianceScore,
		HasWarnings:     result.HasWarnings,
		Timestamp:       result.Timestamp,
		ScanDurationMS:  result.ScanDuration.Milliseconds(),
		QRCodeHash:      result.DispatchToken,
		VehicleSnapshot: result.VehicleSnapshot,
		DriverSnapshot:  result.DriverSnapshot,
	}
}

// FromResults converts batch results, preserving order.
func FromResults(results []*dispatch.Result) *BatchVerifyResponse {
	resp := &BatchVerifyResponse{Results: make([]*VerifyResponse, 0, len(results)), Total: len(results)}
	for _, r := range results {
		if r.Verdict == domain.VerdictApproved {
			resp.Approved++
		} else {
			resp.Blocked++
		}
		resp.Results = append(resp.Results, FromResult(r))
	}
	return resp
}
