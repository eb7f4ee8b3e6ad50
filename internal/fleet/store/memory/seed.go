package memory

import (
	"time"

	"github.com/google/uuid"

	"gatezero/internal/fleet"
	id "gatezero/pkg/domain"
)

// SeedDemoFleet loads a small fleet for local runs with STORE_DRIVER=memory.
// Expiry dates are relative to today so every outcome stays reachable:
// a clean approval, an insurance warning, a blacklist hit, an expired RC and
// a vehicle with neither driver nor permit.
func SeedDemoFleet(s *InMemory, today time.Time) {
	date := func(days int) time.Time {
		y, m, d := today.AddDate(0, 0, days).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	ptr := func(t time.Time) *time.Time { return &t }
	str := func(v string) *string { return &v }

	s.PutVehicle(fleet.Vehicle{
		Registration: "TN-01-AB-1234", OwnerName: "Rajesh Transport Co.", VehicleType: "Truck",
		RCStatus: fleet.RCActive, RCExpiry: date(900), InsuranceExpiry: date(300),
		InsurancePolicyNo: "NIA-2024-778812", InsurerName: "New India Assurance",
		PermitExpiry: ptr(date(400)), TaxID: str("33AAAAA0000A1Z5"), RiskScore: 8,
	})
	s.PutVehicle(fleet.Vehicle{
		Registration: "KA-05-MJ-5678", OwnerName: "Karnataka Freight Ltd.", VehicleType: "Container",
		RCStatus: fleet.RCActive, RCExpiry: date(700), InsuranceExpiry: date(5),
		InsurancePolicyNo: "ICL-2024-552190", InsurerName: "ICICI Lombard",
		PermitExpiry: ptr(date(200)), TaxID: str("29BBBBB1111B2Y6"), RiskScore: 35,
	})
	s.PutVehicle(fleet.Vehicle{
		Registration: "MH-12-CD-9012", OwnerName: "Mumbai Tankers Pvt.", VehicleType: "Tanker",
		RCStatus: fleet.RCActive, RCExpiry: date(300), InsuranceExpiry: date(-20),
		PermitExpiry: ptr(date(-45)), TaxID: str("27CCCCC2222C3X7"),
		IsBlacklisted: true, BlacklistReason: str("Hazardous cargo violations"), RiskScore: 92,
	})
	s.PutVehicle(fleet.Vehicle{
		Registration: "DL-08-KL-1234", OwnerName: "Delhi Transport Union", VehicleType: "Truck",
		RCStatus: fleet.RCExpired, RCExpiry: date(-60), InsuranceExpiry: date(120),
		PermitExpiry: ptr(date(20)), TaxID: str("07HHHHH7777H8S2"), RiskScore: 70,
	})
	s.PutVehicle(fleet.Vehicle{
		Registration: "GJ-01-GH-2345", OwnerName: "Gujarat Cargo Services", VehicleType: "Container",
		RCStatus: fleet.RCActive, RCExpiry: date(400), InsuranceExpiry: date(150), RiskScore: 20,
	})

	drivers := []struct {
		name, license, vehicle string
		expiry                 int
	}{
		{"Ramesh Kumar", "TN-0120180012345", "TN-01-AB-1234", 1200},
		{"Suresh Gowda", "KA-0520190023456", "KA-05-MJ-5678", 25},
		{"Anil Patil", "MH-1220170034567", "MH-12-CD-9012", 500},
		{"Harpreet Singh", "DL-0820160056789", "DL-08-KL-1234", -3},
	}
	for _, d := range drivers {
		s.AddDriver(fleet.Driver{
			ID:              id.DriverID(uuid.New()),
			Name:            d.name,
			LicenseNo:       d.license,
			LicenseExpiry:   date(d.expiry),
			Status:          fleet.DriverActive,
			AssignedVehicle: str(d.vehicle),
		})
	}
}
