package ports

import (
	"context"
	"time"
)

type ActivityType string

const (
	ActivityLogin            ActivityType = "session.login"
	ActivityLogout           ActivityType = "session.logout"
	ActivityPackageReceived  ActivityType = "package.received"
	ActivityPackagePickedUp  ActivityType = "package.picked_up"
	ActivityPackageNotified  ActivityType = "package.notified"
	ActivityRecipientChanged ActivityType = "recipient.changed"
	ActivityLocationChanged  ActivityType = "location.changed"
	ActivityStaffChanged     ActivityType = "staff.changed"
	ActivityPricingChanged   ActivityType = "pricing.changed"
	ActivityTemplateChanged  ActivityType = "template.changed"
)

// ActivityEvent records a successful console mutation for audit consumers.
type ActivityEvent struct {
	ID         string       `json:"id"`
	Type       ActivityType `json:"type"`
	Actor      string       `json:"actor"`
	Role       string       `json:"role"`
	LocationID int64        `json:"location_id,omitempty"`
	ResourceID int64        `json:"resource_id,omitempty"`
	Action     string       `json:"action,omitempty"`
	Amount     int64        `json:"amount,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

type ActivityPublisher interface {
	PublishActivity(ctx context.Context, evt ActivityEvent) error
}
