package mocks

import (
	"time"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
)

// AdminIdentity returns a sample administrator.
func AdminIdentity() domain.Identity {
	return domain.Identity{ID: 1, Username: "admin", FullName: "Admin User", Role: domain.RoleAdmin}
}

// StaffIdentity returns a sample staff member scoped to locationID.
func StaffIdentity(locationID int64) domain.Identity {
	return domain.Identity{ID: 2, Username: "staff", FullName: "Front Desk", Role: domain.RoleStaff, LocationID: locationID}
}

// StoredPackage returns a package waiting for pickup.
func StoredPackage(id, price int64, receivedAt time.Time) domain.Package {
	return domain.Package{
		ID:             id,
		TrackingNumber: "JNE-TEST-001",
		Recipient:      domain.Party{Name: "Budi", Phone: "08123456789", Unit: "A-12"},
		Sender:         domain.Party{Name: "Toko Online"},
		Carrier:        domain.Party{Name: "JNE"},
		LocationID:     1,
		Location:       &domain.LocationRef{ID: 1, Name: "Tower A"},
		Status:         domain.StatusStored,
		Price:          domain.Amount(price),
		ReceivedAt:     receivedAt,
		PickupCode:     "PC-1234",
	}
}

// Packages returns n stored packages with sequential ids.
func Packages(n int) []domain.Package {
	out := make([]domain.Package, n)
	now := time.Now()
	for i := range out {
		out[i] = StoredPackage(int64(i+1), 5000, now.Add(-time.Duration(i+1)*time.Hour))
	}
	return out
}
