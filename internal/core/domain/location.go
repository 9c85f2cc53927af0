package domain

type LocationRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Location struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Address      string      `json:"address,omitempty"`
	StaffCount   int         `json:"staffCount"`
	PackageCount int         `json:"packageCount"`
	DefaultPrice Amount      `json:"defaultPrice"`
	Prices       []SizePrice `json:"prices,omitempty"`
}

// Deletable mirrors the server-side referential rule. The server stays the
// authority; this is only used to hint the UI.
func (l Location) Deletable() bool {
	return l.StaffCount == 0 && l.PackageCount == 0
}

// PriceFor returns the per-size price, falling back to 0 when unset.
func (l Location) PriceFor(size PackageSize) int64 {
	for _, p := range l.Prices {
		if p.SizeID == size {
			return int64(p.Price)
		}
	}
	return 0
}

type LocationInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type PricingModel string

const (
	PricingSimple   PricingModel = "simple"
	PricingAdvanced PricingModel = "advanced"
)

func (m PricingModel) Valid() bool {
	return m == PricingSimple || m == PricingAdvanced
}

type PackageSize string

const (
	SizeSmall  PackageSize = "small"
	SizeMedium PackageSize = "medium"
	SizeLarge  PackageSize = "large"
)

var PackageSizes = []PackageSize{SizeSmall, SizeMedium, SizeLarge}

type SizePrice struct {
	SizeID PackageSize `json:"sizeId"`
	Price  Amount      `json:"price"`
}

// PricingUpdate is the body of PUT /locations/:id/prices. Prices is nil
// (serialised as null) for the simple model.
type PricingUpdate struct {
	PricingModel PricingModel `json:"pricingModel"`
	DefaultPrice int64        `json:"defaultPrice"`
	Prices       []SizePrice  `json:"prices"`
}

func refID(id int64, ref *LocationRef) int64 {
	if id != 0 {
		return id
	}
	if ref != nil {
		return ref.ID
	}
	return 0
}

func refName(ref *LocationRef) string {
	if ref == nil {
		return ""
	}
	return ref.Name
}
