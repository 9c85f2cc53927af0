package services

import (
	"context"
	"strings"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const locationsListKey = "list:locations"

// LocationService manages pickup locations and their pricing.
type LocationService struct {
	api       ports.LocationAPI
	publisher ports.ActivityPublisher
}

func NewLocationService(api ports.LocationAPI, publisher ports.ActivityPublisher) *LocationService {
	return &LocationService{api: api, publisher: publisher}
}

// Controller returns the locations list controller. The endpoint is not
// paginated, so every response is a single page.
func (s *LocationService) Controller(sess *Session) *ListController[domain.Location] {
	return sessionValue(sess, locationsListKey, func() *ListController[domain.Location] {
		return NewListController(func(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Location], error) {
			var locations []domain.Location
			err := authorized(ctx, sess, func(token string) error {
				var err error
				locations, err = s.api.ListLocations(ctx, token, q.Search)
				return err
			})
			return domain.Page[domain.Location]{Items: locations, TotalPages: 1}, err
		})
	})
}

func (s *LocationService) Load(ctx context.Context, sess *Session) (ListView[domain.Location], error) {
	return loadList(ctx, s.Controller(sess), "list locations", "Failed to load locations")
}

func (s *LocationService) Find(sess *Session, id int64) (domain.Location, bool) {
	return s.Controller(sess).Find(func(l domain.Location) bool { return l.ID == id })
}

// All returns every location, for filters and pickers.
func (s *LocationService) All(ctx context.Context, sess *Session) ([]domain.Location, error) {
	var locations []domain.Location
	err := authorized(ctx, sess, func(token string) error {
		var err error
		locations, err = s.api.ListLocations(ctx, token, "")
		return err
	})
	if err != nil {
		return nil, fail("list location options", err, Messages{Generic: "Failed to load locations"})
	}
	return locations, nil
}

func (s *LocationService) Create(ctx context.Context, sess *Session, in domain.LocationInput) error {
	in, err := prepareLocation(in)
	if err != nil {
		return err
	}
	err = authorized(ctx, sess, func(token string) error {
		return s.api.CreateLocation(ctx, token, in)
	})
	if err != nil {
		return fail("create location", err, Messages{
			Generic:  "Failed to add location",
			Conflict: "Location name already exists",
		})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityLocationChanged, "create", 0))
	return nil
}

func (s *LocationService) Update(ctx context.Context, sess *Session, id int64, in domain.LocationInput) error {
	in, err := prepareLocation(in)
	if err != nil {
		return err
	}
	err = authorized(ctx, sess, func(token string) error {
		return s.api.UpdateLocation(ctx, token, id, in)
	})
	if err != nil {
		return fail("update location", err, Messages{
			Generic:  "Failed to update location",
			Conflict: "Location name already exists",
		})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityLocationChanged, "update", id))
	return nil
}

// Delete removes a location. The server rejects locations that still have
// staff or packages; local state is left untouched in that case.
func (s *LocationService) Delete(ctx context.Context, sess *Session, id int64) error {
	err := authorized(ctx, sess, func(token string) error {
		return s.api.DeleteLocation(ctx, token, id)
	})
	if err != nil {
		return fail("delete location", err, Messages{
			Generic:  "Failed to delete location",
			Conflict: "Cannot delete location with associated staff or packages",
		})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityLocationChanged, "delete", id))
	return nil
}

func prepareLocation(in domain.LocationInput) (domain.LocationInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if in.Name == "" {
		return in, domain.Invalid("Please enter a location name")
	}
	return in, nil
}

// Prices lists every location with its pricing.
func (s *LocationService) Prices(ctx context.Context, sess *Session) ([]domain.Location, error) {
	var locations []domain.Location
	err := authorized(ctx, sess, func(token string) error {
		var err error
		locations, err = s.api.ListLocationPrices(ctx, token)
		return err
	})
	if err != nil {
		return nil, fail("list prices", err, Messages{Generic: "Failed to load pricing data"})
	}
	return locations, nil
}

// UpdatePrices stores the pricing of one location. Size prices are only sent
// for the advanced model.
func (s *LocationService) UpdatePrices(ctx context.Context, sess *Session, id int64, model domain.PricingModel, defaultPrice int64, sizes map[domain.PackageSize]int64) error {
	if !model.Valid() {
		return domain.Invalid("Please choose a pricing model")
	}
	if defaultPrice < 0 {
		return domain.Invalid("Prices cannot be negative")
	}

	update := domain.PricingUpdate{PricingModel: model, DefaultPrice: defaultPrice}
	if model == domain.PricingAdvanced {
		update.Prices = make([]domain.SizePrice, 0, len(domain.PackageSizes))
		for _, size := range domain.PackageSizes {
			price := sizes[size]
			if price < 0 {
				return domain.Invalid("Prices cannot be negative")
			}
			update.Prices = append(update.Prices, domain.SizePrice{SizeID: size, Price: domain.Amount(price)})
		}
	}

	err := authorized(ctx, sess, func(token string) error {
		return s.api.UpdateLocationPrices(ctx, token, id, update)
	})
	if err != nil {
		return fail("update prices", err, Messages{Generic: "Failed to update prices"})
	}
	evt := activity(sess, ports.ActivityPricingChanged, string(model), id)
	evt.Amount = defaultPrice
	publish(ctx, s.publisher, evt)
	return nil
}
