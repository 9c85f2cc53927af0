package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

// maxUploadMemory bounds the in-memory part of the receive form; the photo
// itself is capped at domain.MaxImageBytes.
const maxUploadMemory = domain.MaxImageBytes + 1<<20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type packagesView struct {
	List      services.ListView[domain.Package]
	Statuses  []domain.Option
	PageSizes []int
	Locations []domain.Location
	IsAdmin   bool
}

type packageFormView struct {
	Form       domain.NewPackage
	Recipients []domain.Recipient
	Locations  []domain.Location
	Carriers   []string
	IsAdmin    bool
}

type packageDetailView struct {
	Package   domain.Package
	CanPickup bool
}

type pickupView struct {
	Package domain.Package
	Quote   domain.PickupQuote
	Methods []domain.Option
}

func (c *Console) Packages(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	var inline []notice

	if err := applyListParams(c.svc.Packages.Controller(sess), r.URL.Query()); err != nil {
		inline = append(inline, failure(services.Message(err)))
	}
	list, err := c.svc.Packages.Load(r.Context(), sess)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		inline = append(inline, failure(services.Message(err)))
	}

	view := packagesView{
		List:      list,
		Statuses:  statusOptions,
		PageSizes: domain.PageSizes,
		IsAdmin:   c.identity(r).IsAdmin(),
	}
	if view.IsAdmin {
		locations, err := c.svc.Locations.All(r.Context(), sess)
		if err != nil {
			inline = append(inline, failure(services.Message(err)))
		}
		view.Locations = locations
	}
	c.render(w, r, http.StatusOK, "packages.html", view, inline...)
}

// ExportPackages downloads every package matching the current filter.
func (c *Console) ExportPackages(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	result, err := c.svc.Export.Write(r.Context(), c.session(r), &buf)
	if err != nil {
		c.fail(w, r, err, "/packages")
		return
	}
	log.Printf("Exported %d packages", result.Rows)

	// The download does not navigate, so the flash shows on the next page.
	if result.Truncated {
		log.Printf("Export truncated at %d packages", result.Rows)
		w.Header().Set("X-Export-Truncated", "true")
		c.flash(w, r, warning(services.TruncationNotice(result.Rows)))
	}

	filename := fmt.Sprintf("packages-%s.xlsx", time.Now().Format(domain.DateLayout))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Failed to write export: %v", err)
	}
}

func (c *Console) NewPackage(w http.ResponseWriter, r *http.Request) {
	c.renderPackageForm(w, r, http.StatusOK, domain.NewPackage{})
}

func (c *Console) renderPackageForm(w http.ResponseWriter, r *http.Request, status int, form domain.NewPackage, inline ...notice) {
	sess := c.session(r)
	view := packageFormView{
		Form:     form,
		Carriers: domain.Carriers,
		IsAdmin:  c.identity(r).IsAdmin(),
	}

	recipients, err := c.svc.Recipients.Options(r.Context(), sess)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		inline = append(inline, failure(services.Message(err)))
	}
	view.Recipients = recipients

	if view.IsAdmin {
		locations, err := c.svc.Locations.All(r.Context(), sess)
		if err != nil {
			inline = append(inline, failure(services.Message(err)))
		}
		view.Locations = locations
	}
	c.render(w, r, status, "package_form.html", view, inline...)
}

func (c *Console) CreatePackage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.fail(w, r, domain.Invalid("Invalid form submission"), "/packages/new")
		return
	}

	form := packageFromForm(r)
	image, err := readImage(r)
	if err != nil {
		c.renderPackageForm(w, r, statusFor(err), form, failure(services.Message(err)))
		return
	}
	form.Image = image

	if _, err := c.svc.Packages.Receive(r.Context(), c.session(r), form); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		form.Image = nil
		c.renderPackageForm(w, r, statusFor(err), form, failure(services.Message(err)))
		return
	}
	c.redirect(w, r, "/packages", success("Package created successfully"))
}

func packageFromForm(r *http.Request) domain.NewPackage {
	recipientID, _ := parseOptionalID(r.FormValue("recipientId"))
	locationID, _ := parseOptionalID(r.FormValue("locationId"))
	return domain.NewPackage{
		TrackingNumber:     strings.TrimSpace(r.FormValue("trackingNumber")),
		RecipientID:        recipientID,
		NewRecipient:       checked(r.FormValue("newRecipient")),
		RecipientName:      strings.TrimSpace(r.FormValue("recipientName")),
		RecipientPhone:     strings.TrimSpace(r.FormValue("recipientPhone")),
		RecipientUnit:      strings.TrimSpace(r.FormValue("recipientUnit")),
		SenderName:         strings.TrimSpace(r.FormValue("senderName")),
		CarrierName:        strings.TrimSpace(r.FormValue("carrierName")),
		PackageDescription: strings.TrimSpace(r.FormValue("packageDescription")),
		LocationID:         locationID,
	}
}

// readImage returns the optional package photo. It reads one byte past the
// size limit so validation can reject oversized files.
func readImage(r *http.Request) (*domain.Upload, error) {
	file, header, err := r.FormFile("packageImage")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Invalid("Invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxImageBytes+1))
	if err != nil {
		return nil, domain.Invalid("Invalid image upload")
	}
	if len(data) == 0 {
		return nil, nil
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &domain.Upload{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

// findPackage looks id up among the loaded rows, loading the current page
// once if the row is not there yet.
func (c *Console) findPackage(r *http.Request, id int64) (domain.Package, error) {
	sess := c.session(r)
	if pkg, ok := c.svc.Packages.Find(sess, id); ok {
		return pkg, nil
	}
	if _, err := c.svc.Packages.Load(r.Context(), sess); err != nil {
		return domain.Package{}, err
	}
	if pkg, ok := c.svc.Packages.Find(sess, id); ok {
		return pkg, nil
	}
	return domain.Package{}, domain.Invalid("Package not found")
}

func (c *Console) PackageDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	pkg, err := c.findPackage(r, id)
	if err != nil {
		c.fail(w, r, err, "/packages")
		return
	}
	c.render(w, r, http.StatusOK, "package_detail.html", packageDetailView{
		Package:   pkg,
		CanPickup: pkg.Status.CanTransition(domain.StatusPickedUp),
	})
}

// PickupPage shows the advisory charge before the pickup is confirmed.
func (c *Console) PickupPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	pkg, err := c.findPackage(r, id)
	if err != nil {
		c.fail(w, r, err, "/packages")
		return
	}
	quote, err := c.svc.Packages.Quote(pkg)
	if err != nil {
		c.fail(w, r, err, fmt.Sprintf("/packages/%d", id))
		return
	}
	c.render(w, r, http.StatusOK, "pickup.html", pickupView{
		Package: pkg,
		Quote:   quote,
		Methods: domain.PaymentMethods,
	})
}

func (c *Console) Pickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	pkg, err := c.findPackage(r, id)
	if err != nil {
		c.fail(w, r, err, "/packages")
		return
	}

	method := domain.PaymentMethod(r.PostFormValue("paymentMethod"))
	out, err := c.svc.Packages.Pickup(r.Context(), c.session(r), pkg, method, r.PostFormValue("notes"))
	if err != nil {
		c.fail(w, r, err, fmt.Sprintf("/packages/%d/pickup", id))
		return
	}

	msg := fmt.Sprintf("Package marked as picked up. Charged %s", services.FormatRupiah(out.Charged))
	if out.Reconciled {
		msg += fmt.Sprintf(" (estimate was %s)", services.FormatRupiah(out.Quote.FinalPrice))
	}
	c.redirect(w, r, "/packages", success(msg))
}

func (c *Console) NotifyPackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.svc.Packages.Notify(r.Context(), c.session(r), id); err != nil {
		c.fail(w, r, err, "/packages")
		return
	}
	c.redirect(w, r, "/packages", success("Notification resent successfully"))
}

// ScanPackage receives the text decoded by the scanner dialog and uses it
// as the search term.
func (c *Console) ScanPackage(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Packages.ApplyScan(c.session(r), r.PostFormValue("code")); err != nil {
		c.fail(w, r, err, "/packages")
		return
	}
	c.redirect(w, r, "/packages", success("Barcode scanned successfully!"))
}
