package ports

import (
	"context"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
)

// Every method except Login takes the bearer credential of the caller.

type AuthAPI interface {
	Login(ctx context.Context, username, password string) (string, domain.Identity, error)
	Me(ctx context.Context, token string) (domain.Identity, error)
}

type LocationAPI interface {
	ListLocations(ctx context.Context, token, search string) ([]domain.Location, error)
	CreateLocation(ctx context.Context, token string, in domain.LocationInput) error
	UpdateLocation(ctx context.Context, token string, id int64, in domain.LocationInput) error
	DeleteLocation(ctx context.Context, token string, id int64) error
	ListLocationPrices(ctx context.Context, token string) ([]domain.Location, error)
	UpdateLocationPrices(ctx context.Context, token string, id int64, update domain.PricingUpdate) error
}

type RecipientAPI interface {
	ListRecipients(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.Recipient], error)
	CreateRecipient(ctx context.Context, token string, in domain.RecipientInput) error
	UpdateRecipient(ctx context.Context, token string, id int64, in domain.RecipientInput) error
	DeleteRecipient(ctx context.Context, token string, id int64) error
}

type PackageAPI interface {
	ListPackages(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.Package], error)
	CreatePackage(ctx context.Context, token string, p domain.NewPackage) (domain.Package, error)
	PickupPackage(ctx context.Context, token string, id int64, req domain.PickupRequest) (domain.PickupResult, error)
	NotifyPackage(ctx context.Context, token string, id int64) error
}

type StaffAPI interface {
	ListStaff(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.StaffAccount], error)
	CreateStaff(ctx context.Context, token string, in domain.StaffInput) error
	UpdateStaff(ctx context.Context, token string, id int64, in domain.StaffInput) error
	DeleteStaff(ctx context.Context, token string, id int64) error
}

type TemplateAPI interface {
	ListTemplates(ctx context.Context, token string) ([]domain.NotificationTemplate, error)
	CreateTemplate(ctx context.Context, token string, in domain.TemplateInput) (domain.NotificationTemplate, error)
	UpdateTemplate(ctx context.Context, token string, id int64, in domain.TemplateInput) error
	SendTestMessage(ctx context.Context, token string, msg domain.TestMessage) error
}

type DashboardAPI interface {
	DashboardStats(ctx context.Context, token string, q domain.DashboardQuery) (domain.Dashboard, error)
}

// PickPointAPI is the full remote API surface the console consumes.
type PickPointAPI interface {
	AuthAPI
	LocationAPI
	RecipientAPI
	PackageAPI
	StaffAPI
	TemplateAPI
	DashboardAPI
}
