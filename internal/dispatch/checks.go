package dispatch

import (
	"fmt"
	"time"

	"gatezero/internal/dispatch/ports"
	"gatezero/internal/domain"
	"gatezero/internal/fleet"
)

const (
	displayDateLayout = "02 Jan 2006"

	insuranceWarnDays = 7
	permitWarnDays    = 30
	licenseWarnDays   = 30

	eWayBillLength = 12
)

// The check functions below are pure: they take the fetched evidence, the
// calendar day the scan happens on, and the timestamp to stamp the check with.

func checkBlacklist(v *fleet.Vehicle, at time.Time) domain.Check {
	if v.IsBlacklisted {
		details := "Vehicle is blacklisted"
		if v.BlacklistReason != nil && *v.BlacklistReason != "" {
			details += ": " + *v.BlacklistReason
		}
		return newCheck(domain.CheckBlacklist, domain.CheckFailed, details, at)
	}
	return newCheck(domain.CheckBlacklist, domain.CheckPassed, "Vehicle not on blacklist", at)
}

func checkRegistration(v *fleet.Vehicle, today, at time.Time) domain.Check {
	if v.RCStatus == fleet.RCExpired || daysUntil(v.RCExpiry, today) < 0 {
		return newCheck(domain.CheckRegistration, domain.CheckFailed,
			"RC Expired on "+formatDate(v.RCExpiry), at)
	}
	if v.RCStatus == fleet.RCSuspended {
		return newCheck(domain.CheckRegistration, domain.CheckFailed,
			"RC Status: Suspended - Contact RTO", at)
	}
	return newCheck(domain.CheckRegistration, domain.CheckPassed,
		"RC Status: Active, Valid until "+formatDate(v.RCExpiry), at)
}

func checkInsurance(v *fleet.Vehicle, today, at time.Time) domain.Check {
	days := daysUntil(v.InsuranceExpiry, today)
	switch {
	case days < 0:
		return newCheck(domain.CheckInsurance, domain.CheckFailed,
			fmt.Sprintf("Policy Expired %d days ago (%s)", -days, formatDate(v.InsuranceExpiry)), at)
	case days <= insuranceWarnDays:
		return newCheck(domain.CheckInsurance, domain.CheckWarning,
			fmt.Sprintf("Policy Expiring in %d days (%s)", days, formatDate(v.InsuranceExpiry)), at)
	default:
		return newCheck(domain.CheckInsurance, domain.CheckPassed,
			"Policy Active, Valid until "+formatDate(v.InsuranceExpiry), at)
	}
}

// checkTaxID never fails; an unregistered or unverifiable tax id only warns.
func checkTaxID(v *fleet.Vehicle, status ports.TaxStatus, at time.Time) domain.Check {
	if v.TaxID == nil || *v.TaxID == "" {
		return newCheck(domain.CheckTaxID, domain.CheckWarning, "GSTIN not registered", at)
	}
	if status != ports.TaxStatusActive {
		return newCheck(domain.CheckTaxID, domain.CheckWarning,
			fmt.Sprintf("GSTIN %s - Status: Under Review", *v.TaxID), at)
	}
	return newCheck(domain.CheckTaxID, domain.CheckPassed,
		fmt.Sprintf("GSTIN %s - Active", *v.TaxID), at)
}

func checkEWayBill(number string, at time.Time) domain.Check {
	if !isEWayBillNumber(number) {
		return newCheck(domain.CheckEWayBill, domain.CheckFailed,
			"Invalid E-Way Bill format (must be 12 digits)", at)
	}
	return newCheck(domain.CheckEWayBill, domain.CheckPassed,
		fmt.Sprintf("E-Way Bill %s - Valid", number), at)
}

func checkPermit(v *fleet.Vehicle, today, at time.Time) domain.Check {
	if v.PermitExpiry == nil {
		return newCheck(domain.CheckPermit, domain.CheckWarning, "Permit information not available", at)
	}
	days := daysUntil(*v.PermitExpiry, today)
	switch {
	case days < 0:
		return newCheck(domain.CheckPermit, domain.CheckFailed,
			fmt.Sprintf("National Permit Expired %d days ago", -days), at)
	case days <= permitWarnDays:
		return newCheck(domain.CheckPermit, domain.CheckWarning,
			fmt.Sprintf("Permit Expiring in %d days", days), at)
	default:
		return newCheck(domain.CheckPermit, domain.CheckPassed,
			"National Permit Valid until "+formatDate(*v.PermitExpiry), at)
	}
}

func checkDriverLicense(d *fleet.Driver, today, at time.Time) domain.Check {
	if d == nil {
		return newCheck(domain.CheckDriver, domain.CheckWarning, "No driver assigned to vehicle", at)
	}
	days := daysUntil(d.LicenseExpiry, today)
	switch {
	case days < 0:
		return newCheck(domain.CheckDriver, domain.CheckFailed,
			fmt.Sprintf("License Expired %d days ago", -days), at)
	case days <= licenseWarnDays:
		return newCheck(domain.CheckDriver, domain.CheckWarning,
			fmt.Sprintf("License Expiring in %d days", days), at)
	default:
		return newCheck(domain.CheckDriver, domain.CheckPassed,
			fmt.Sprintf("License %s - Valid", d.LicenseNo), at)
	}
}

// checkRouteDistance always passes until a routing source is integrated.
func checkRouteDistance(at time.Time) domain.Check {
	return newCheck(domain.CheckRoute, domain.CheckPassed, "Route distance within limits (no routing data)", at)
}

func newCheck(name domain.CheckName, status domain.CheckStatus, details string, at time.Time) domain.Check {
	return domain.Check{Name: name, Status: status, Details: details, Timestamp: at}
}

func isEWayBillNumber(s string) bool {
	if len(s) != eWayBillLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// calendarDay returns the civil date of t in loc, as midnight UTC.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysUntil counts whole calendar days from today to expiry; negative once expired.
// Expiry values are calendar dates, so their own Y/M/D is taken as-is.
func daysUntil(expiry, today time.Time) int {
	y, m, d := expiry.Date()
	exp := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24)
}

func formatDate(t time.Time) string {
	return t.Format(displayDateLayout)
}
