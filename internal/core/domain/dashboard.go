package domain

import "time"

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

var Periods = []Option{
	{Value: string(PeriodDaily), Label: "Daily"},
	{Value: string(PeriodWeekly), Label: "Weekly"},
	{Value: string(PeriodMonthly), Label: "Monthly"},
}

func (p Period) Valid() bool {
	return p == PeriodDaily || p == PeriodWeekly || p == PeriodMonthly
}

// DateLayout is the wire format for startDate/endDate.
const DateLayout = "2006-01-02"

type DashboardQuery struct {
	StartDate  time.Time
	EndDate    time.Time
	Period     Period
	LocationID int64
}

type Stats struct {
	ReceivedToday int   `json:"receivedToday"`
	PickedUpToday int   `json:"pickedUpToday"`
	PendingPickup int   `json:"pendingPickup"`
	RevenueToday  int64 `json:"revenueToday"`
}

type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Series is chart-ready data, rendered by the browser charting script.
type Series struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dashboard struct {
	Stats        Stats  `json:"stats"`
	PackagesData Series `json:"packagesData"`
	RevenueData  Series `json:"revenueData"`
	StatusData   Series `json:"statusData"`
}
