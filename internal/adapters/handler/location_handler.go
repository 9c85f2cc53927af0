package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

type locationsView struct {
	List    services.ListView[domain.Location]
	Editing *domain.Location
}

type pricesView struct {
	Locations []domain.Location
	Sizes     []domain.PackageSize
}

func (c *Console) Locations(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	var inline []notice

	if err := applyListParams(c.svc.Locations.Controller(sess), r.URL.Query()); err != nil {
		inline = append(inline, failure(services.Message(err)))
	}
	list, err := c.svc.Locations.Load(r.Context(), sess)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		inline = append(inline, failure(services.Message(err)))
	}

	view := locationsView{List: list}
	if id, _ := parseOptionalID(r.URL.Query().Get("edit")); id != 0 {
		if loc, ok := c.svc.Locations.Find(sess, id); ok {
			view.Editing = &loc
		}
	}
	c.render(w, r, http.StatusOK, "locations.html", view, inline...)
}

func locationFromForm(r *http.Request) domain.LocationInput {
	return domain.LocationInput{
		Name:    r.PostFormValue("name"),
		Address: r.PostFormValue("address"),
	}
}

func (c *Console) CreateLocation(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Locations.Create(r.Context(), c.session(r), locationFromForm(r)); err != nil {
		c.fail(w, r, err, "/locations")
		return
	}
	c.redirect(w, r, "/locations", success("Location added successfully"))
}

func (c *Console) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.svc.Locations.Update(r.Context(), c.session(r), id, locationFromForm(r)); err != nil {
		c.fail(w, r, err, fmt.Sprintf("/locations?edit=%d", id))
		return
	}
	c.redirect(w, r, "/locations", success("Location updated successfully"))
}

func (c *Console) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.svc.Locations.Delete(r.Context(), c.session(r), id); err != nil {
		c.fail(w, r, err, "/locations")
		return
	}
	c.redirect(w, r, "/locations", success("Location deleted successfully"))
}

func (c *Console) Prices(w http.ResponseWriter, r *http.Request) {
	locations, err := c.svc.Locations.Prices(r.Context(), c.session(r))
	var inline []notice
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		inline = append(inline, failure(services.Message(err)))
	}
	c.render(w, r, http.StatusOK, "prices.html", pricesView{Locations: locations, Sizes: domain.PackageSizes}, inline...)
}

func (c *Console) UpdatePrices(w http.ResponseWriter, r *http.Request) {
	id, err := parseOptionalID(r.PostFormValue("locationId"))
	if err == nil && id == 0 {
		err = domain.Invalid("Please select a location")
	}
	if err != nil {
		c.fail(w, r, err, "/prices")
		return
	}

	defaultPrice, err := parseAmount(r.PostFormValue("defaultPrice"))
	if err != nil {
		c.fail(w, r, err, "/prices")
		return
	}
	sizes := make(map[domain.PackageSize]int64, len(domain.PackageSizes))
	for _, size := range domain.PackageSizes {
		price, err := parseAmount(r.PostFormValue("price_" + string(size)))
		if err != nil {
			c.fail(w, r, err, "/prices")
			return
		}
		sizes[size] = price
	}

	model := domain.PricingModel(r.PostFormValue("pricingModel"))
	if err := c.svc.Locations.UpdatePrices(r.Context(), c.session(r), id, model, defaultPrice, sizes); err != nil {
		c.fail(w, r, err, "/prices")
		return
	}
	c.redirect(w, r, "/prices", success("Prices updated successfully"))
}
