package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Identity is the authenticated console user as reported by the API.
type Identity struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	Role       Role   `json:"role"`
	LocationID int64  `json:"locationId,omitempty"`
}

// Valid reports whether the identity carries a known role and, for staff,
// the location it is scoped to.
func (i Identity) Valid() bool {
	if !i.Role.Valid() {
		return false
	}
	if i.Role == RoleStaff && i.LocationID == 0 {
		return false
	}
	return true
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// UserRef is the abbreviated user embedded in other resources
// (receivedBy, pickedUpBy).
type UserRef struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName"`
}

type StaffAccount struct {
	ID              int64        `json:"id"`
	Username        string       `json:"username"`
	FullName        string       `json:"fullName"`
	LocationID      int64        `json:"locationId"`
	Location        *LocationRef `json:"location,omitempty"`
	PackagesHandled int          `json:"packagesHandled"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// StaffInput is the write model for staff accounts. An empty Password on
// update means the password is left unchanged.
type StaffInput struct {
	Username   string `json:"username"`
	Password   string `json:"password,omitempty"`
	FullName   string `json:"fullName"`
	LocationID int64  `json:"locationId"`
}

func (s StaffAccount) LocationKey() int64 {
	return refID(s.LocationID, s.Location)
}

func (s StaffAccount) LocationName() string {
	return refName(s.Location)
}
