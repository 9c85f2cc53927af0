package domain

type Recipient struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Unit         string       `json:"unit,omitempty"`
	LocationID   int64        `json:"locationId"`
	Location     *LocationRef `json:"location,omitempty"`
	PackageCount int          `json:"packageCount"`
}

func (r Recipient) LocationKey() int64 {
	return refID(r.LocationID, r.Location)
}

func (r Recipient) LocationName() string {
	return refName(r.Location)
}

type RecipientInput struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Unit       string `json:"unit"`
	LocationID int64  `json:"locationId"`
}
