package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const packagesListKey = "list:packages"

// PackageService covers receiving, pickup and notification of packages.
type PackageService struct {
	api       ports.PackageAPI
	publisher ports.ActivityPublisher
	now       func() time.Time
}

func NewPackageService(api ports.PackageAPI, publisher ports.ActivityPublisher) *PackageService {
	return &PackageService{
		api:       api,
		publisher: publisher,
		now:       time.Now,
	}
}

// Controller returns the packages list controller of the session.
func (s *PackageService) Controller(sess *Session) *ListController[domain.Package] {
	c := sessionValue(sess, packagesListKey, func() *ListController[domain.Package] {
		return NewListController(func(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Package], error) {
			var page domain.Page[domain.Package]
			err := authorized(ctx, sess, func(token string) error {
				var err error
				page, err = s.api.ListPackages(ctx, token, q)
				return err
			})
			return page, err
		})
	})
	c.Scope(identityOf(sess))
	return c
}

func (s *PackageService) Load(ctx context.Context, sess *Session) (ListView[domain.Package], error) {
	return loadList(ctx, s.Controller(sess), "list packages", "Failed to load packages")
}

// Find looks a package up among the rows currently loaded for the session.
func (s *PackageService) Find(sess *Session, id int64) (domain.Package, bool) {
	return s.Controller(sess).Find(func(p domain.Package) bool { return p.ID == id })
}

// ApplyScan uses decoded barcode text as the search term.
func (s *PackageService) ApplyScan(sess *Session, decoded string) error {
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return domain.Invalid("No barcode detected")
	}
	c := s.Controller(sess)
	f := c.Query().Filter()
	f.Search = decoded
	c.SetFilter(f)
	return nil
}

// Receive validates and registers an incoming package.
func (s *PackageService) Receive(ctx context.Context, sess *Session, in domain.NewPackage) (domain.Package, error) {
	identity := identityOf(sess)
	if identity.Role == domain.RoleStaff {
		in.LocationID = identity.LocationID
	}
	if err := validateNewPackage(in); err != nil {
		return domain.Package{}, err
	}

	var created domain.Package
	err := authorized(ctx, sess, func(token string) error {
		var err error
		created, err = s.api.CreatePackage(ctx, token, in)
		return err
	})
	if err != nil {
		return domain.Package{}, fail("create package", err, Messages{Generic: "Failed to create package", PreferServer: true})
	}

	evt := activity(sess, ports.ActivityPackageReceived, "create", created.ID)
	evt.LocationID = in.LocationID
	publish(ctx, s.publisher, evt)
	return created, nil
}

func validateNewPackage(in domain.NewPackage) error {
	if strings.TrimSpace(in.TrackingNumber) == "" {
		return domain.Invalid("Please enter a tracking number")
	}
	if in.NewRecipient {
		if strings.TrimSpace(in.RecipientName) == "" || strings.TrimSpace(in.RecipientPhone) == "" {
			return domain.Invalid("Please enter recipient name and phone number")
		}
	} else if in.RecipientID == 0 {
		return domain.Invalid("Please select a recipient")
	}
	if strings.TrimSpace(in.SenderName) == "" {
		return domain.Invalid("Please enter sender name")
	}
	if strings.TrimSpace(in.CarrierName) == "" {
		return domain.Invalid("Please select a carrier")
	}
	if in.LocationID == 0 {
		return domain.Invalid("Please select a location")
	}
	if in.Image != nil {
		if !strings.HasPrefix(in.Image.ContentType, "image/") {
			return domain.Invalid("Please upload an image file")
		}
		if len(in.Image.Data) > domain.MaxImageBytes {
			return domain.Invalid("Image size should be less than 5MB")
		}
	}
	return nil
}

// Quote computes the advisory pickup charge for a stored package.
func (s *PackageService) Quote(pkg domain.Package) (domain.PickupQuote, error) {
	if !pkg.Status.CanTransition(domain.StatusPickedUp) {
		return domain.PickupQuote{}, domain.Invalid("Only stored packages can be picked up")
	}
	return domain.Quote(int64(pkg.Price), pkg.ReceivedAt, s.now()), nil
}

// PickupOutcome reports the charge shown before confirmation and the one
// the server settled on.
type PickupOutcome struct {
	Quote      domain.PickupQuote
	Charged    int64
	Reconciled bool
}

// Pickup records a pickup. The local quote is advisory: when the server
// reports a charge, that value wins.
func (s *PackageService) Pickup(ctx context.Context, sess *Session, pkg domain.Package, method domain.PaymentMethod, notes string) (PickupOutcome, error) {
	quote, err := s.Quote(pkg)
	if err != nil {
		return PickupOutcome{}, err
	}
	if !method.Valid() {
		return PickupOutcome{}, domain.Invalid("Please select a payment method")
	}

	var result domain.PickupResult
	err = authorized(ctx, sess, func(token string) error {
		var err error
		result, err = s.api.PickupPackage(ctx, token, pkg.ID, domain.PickupRequest{
			PaymentMethod: method,
			Notes:         strings.TrimSpace(notes),
		})
		return err
	})
	if err != nil {
		return PickupOutcome{}, fail("pickup package", err, Messages{Generic: "Failed to process pickup", PreferServer: true})
	}

	out := PickupOutcome{Quote: quote, Charged: quote.FinalPrice}
	if charge, ok := result.Charge(); ok {
		out.Charged = charge
		if charge != quote.FinalPrice {
			out.Reconciled = true
			log.Printf("pickup %d: server charged %d, estimate was %d", pkg.ID, charge, quote.FinalPrice)
		}
	}

	evt := activity(sess, ports.ActivityPackagePickedUp, string(method), pkg.ID)
	evt.LocationID = pkg.LocationKey()
	evt.Amount = out.Charged
	publish(ctx, s.publisher, evt)
	return out, nil
}

// Notify asks the server to resend the arrival notification.
func (s *PackageService) Notify(ctx context.Context, sess *Session, id int64) error {
	err := authorized(ctx, sess, func(token string) error {
		return s.api.NotifyPackage(ctx, token, id)
	})
	if err != nil {
		return fail("notify package", err, Messages{Generic: "Failed to resend notification"})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityPackageNotified, "notify", id))
	return nil
}

// loadList refreshes c and returns its view. A superseded fetch is not an
// error; the caller renders whatever the newest fetch left behind.
func loadList[T any](ctx context.Context, c *ListController[T], op, generic string) (ListView[T], error) {
	err := c.Refresh(ctx)
	if errors.Is(err, ErrStaleResponse) {
		err = nil
	}
	return c.View(), fail(op, err, Messages{Generic: generic})
}
