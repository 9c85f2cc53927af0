package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

type recipientsView struct {
	List      services.ListView[domain.Recipient]
	PageSizes []int
	Locations []domain.Location
	IsAdmin   bool
	Editing   *domain.Recipient
}

func (c *Console) Recipients(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	var inline []notice

	if err := applyListParams(c.svc.Recipients.Controller(sess), r.URL.Query()); err != nil {
		inline = append(inline, failure(services.Message(err)))
	}
	list, err := c.svc.Recipients.Load(r.Context(), sess)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		inline = append(inline, failure(services.Message(err)))
	}

	view := recipientsView{
		List:      list,
		PageSizes: domain.PageSizes,
		IsAdmin:   c.identity(r).IsAdmin(),
	}
	if id, _ := parseOptionalID(r.URL.Query().Get("edit")); id != 0 {
		if rec, ok := c.svc.Recipients.Find(sess, id); ok {
			view.Editing = &rec
		}
	}
	if view.IsAdmin {
		locations, err := c.svc.Locations.All(r.Context(), sess)
		if err != nil {
			inline = append(inline, failure(services.Message(err)))
		}
		view.Locations = locations
	}
	c.render(w, r, http.StatusOK, "recipients.html", view, inline...)
}

func recipientFromForm(r *http.Request) domain.RecipientInput {
	locationID, _ := parseOptionalID(r.PostFormValue("locationId"))
	return domain.RecipientInput{
		Name:       r.PostFormValue("name"),
		Phone:      r.PostFormValue("phone"),
		Unit:       r.PostFormValue("unit"),
		LocationID: locationID,
	}
}

func (c *Console) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Recipients.Create(r.Context(), c.session(r), recipientFromForm(r)); err != nil {
		c.fail(w, r, err, "/recipients")
		return
	}
	c.redirect(w, r, "/recipients", success("Recipient added successfully"))
}

func (c *Console) UpdateRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.svc.Recipients.Update(r.Context(), c.session(r), id, recipientFromForm(r)); err != nil {
		c.fail(w, r, err, fmt.Sprintf("/recipients?edit=%d", id))
		return
	}
	c.redirect(w, r, "/recipients", success("Recipient updated successfully"))
}

func (c *Console) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.svc.Recipients.Delete(r.Context(), c.session(r), id); err != nil {
		c.fail(w, r, err, "/recipients")
		return
	}
	c.redirect(w, r, "/recipients", success("Recipient deleted successfully"))
}
