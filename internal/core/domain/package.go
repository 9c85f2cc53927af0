package domain

import (
	"fmt"
	"time"
)

type PackageStatus string

const (
	StatusStored    PackageStatus = "stored"
	StatusPickedUp  PackageStatus = "picked_up"
	StatusDestroyed PackageStatus = "destroyed"
)

func (s PackageStatus) Valid() bool {
	switch s {
	case StatusStored, StatusPickedUp, StatusDestroyed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s PackageStatus) Terminal() bool {
	return s == StatusPickedUp || s == StatusDestroyed
}

// CanTransition encodes the one-way lifecycle:
// stored -> picked_up, stored -> destroyed.
func (s PackageStatus) CanTransition(to PackageStatus) bool {
	if s != StatusStored {
		return false
	}
	return to == StatusPickedUp || to == StatusDestroyed
}

func (s PackageStatus) Label() string {
	switch s {
	case StatusStored:
		return "Stored"
	case StatusPickedUp:
		return "Picked Up"
	case StatusDestroyed:
		return "Destroyed"
	}
	return string(s)
}

type Party struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Unit  string `json:"unit,omitempty"`
}

type Package struct {
	ID             int64         `json:"id"`
	TrackingNumber string        `json:"trackingNumber"`
	Recipient      Party         `json:"recipient"`
	Sender         Party         `json:"sender"`
	Carrier        Party         `json:"carrier"`
	Description    string        `json:"description,omitempty"`
	LocationID     int64         `json:"locationId"`
	Location       *LocationRef  `json:"location,omitempty"`
	Status         PackageStatus `json:"status"`
	Price          Amount        `json:"price"`
	ReceivedAt     time.Time     `json:"receivedAt"`
	ReceivedBy     *UserRef      `json:"receivedBy,omitempty"`
	PickedUpAt     *time.Time    `json:"pickedUpAt,omitempty"`
	PickedUpBy     *UserRef      `json:"pickedUpBy,omitempty"`
	PickupCode     string        `json:"pickupCode"`
	QRCodeURL      string        `json:"qrCodeUrl,omitempty"`
	PackageImage   string        `json:"packageImage,omitempty"`
}

func (p Package) LocationKey() int64 {
	return refID(p.LocationID, p.Location)
}

func (p Package) LocationName() string {
	return refName(p.Location)
}

// Transition moves the package to the target status or reports why it
// cannot.
func (p *Package) Transition(to PackageStatus) error {
	if !p.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}
	p.Status = to
	return nil
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentQRIS     PaymentMethod = "qris"
)

type Option struct {
	Value string
	Label string
}

var PaymentMethods = []Option{
	{Value: string(PaymentCash), Label: "Cash"},
	{Value: string(PaymentTransfer), Label: "Bank Transfer"},
	{Value: string(PaymentQRIS), Label: "QRIS"},
}

func (m PaymentMethod) Valid() bool {
	for _, o := range PaymentMethods {
		if o.Value == string(m) {
			return true
		}
	}
	return false
}

var Carriers = []string{
	"JNE",
	"J&T",
	"SiCepat",
	"Pos Indonesia",
	"AnterAja",
	"Ninja Express",
	"Other",
}

// MaxImageBytes bounds the optional package photo.
const MaxImageBytes = 5 * 1024 * 1024

// PickupRequest is the body of PUT /packages/:id/pickup.
type PickupRequest struct {
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Notes         string        `json:"notes"`
}

// PickupResult is what the API returns after a pickup. FinalPrice and
// TotalPrice are optional; when either is present it is the authoritative
// charge.
type PickupResult struct {
	Package    *Package `json:"package,omitempty"`
	FinalPrice *Amount  `json:"finalPrice,omitempty"`
	TotalPrice *Amount  `json:"totalPrice,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// Charge returns the authoritative charge if the server reported one.
func (r PickupResult) Charge() (int64, bool) {
	if r.FinalPrice != nil {
		return int64(*r.FinalPrice), true
	}
	if r.TotalPrice != nil {
		return int64(*r.TotalPrice), true
	}
	return 0, false
}

// Upload is an in-memory file attached to a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewPackage is the receive form. Either RecipientID is set or NewRecipient
// is true with RecipientName/RecipientPhone.
type NewPackage struct {
	TrackingNumber     string
	RecipientID        int64
	NewRecipient       bool
	RecipientName      string
	RecipientPhone     string
	RecipientUnit      string
	SenderName         string
	CarrierName        string
	PackageDescription string
	LocationID         int64
	Image              *Upload
}
