package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

type staffView struct {
	List      services.ListView[domain.StaffAccount]
	PageSizes []int
	Locations []domain.Location
	Editing   *domain.StaffAccount
}

func (c *Console) Staff(w http.ResponseWriter, r *http.Request) {
	sess := c.session(r)
	var inline []notice

	if err := applyListParams(c.svc.Staff.Controller(sess), r.URL.Query()); err != nil {
		inline = append(inline, failure(services.Message(err)))
	}
	list, err := c.svc.Staff.Load(r.Context(), sess)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		inline = append(inline, failure(services.Message(err)))
	}

	locations, err := c.svc.Locations.All(r.Context(), sess)
	if err != nil {
		inline = append(inline, failure(services.Message(err)))
	}

	view := staffView{List: list, PageSizes: domain.PageSizes, Locations: locations}
	if id, _ := parseOptionalID(r.URL.Query().Get("edit")); id != 0 {
		if account, ok := c.svc.Staff.Find(sess, id); ok {
			view.Editing = &account
		}
	}
	c.render(w, r, http.StatusOK, "staff.html", view, inline...)
}

func staffFromForm(r *http.Request) domain.StaffInput {
	locationID, _ := parseOptionalID(r.PostFormValue("locationId"))
	return domain.StaffInput{
		Username:   r.PostFormValue("username"),
		Password:   r.PostFormValue("password"),
		FullName:   r.PostFormValue("fullName"),
		LocationID: locationID,
	}
}

func (c *Console) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Staff.Create(r.Context(), c.session(r), staffFromForm(r)); err != nil {
		c.fail(w, r, err, "/staff")
		return
	}
	c.redirect(w, r, "/staff", success("Staff member added successfully"))
}

func (c *Console) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.svc.Staff.Update(r.Context(), c.session(r), id, staffFromForm(r)); err != nil {
		c.fail(w, r, err, fmt.Sprintf("/staff?edit=%d", id))
		return
	}
	c.redirect(w, r, "/staff", success("Staff member updated successfully"))
}

func (c *Console) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.svc.Staff.Delete(r.Context(), c.session(r), id); err != nil {
		c.fail(w, r, err, "/staff")
		return
	}
	c.redirect(w, r, "/staff", success("Staff member deleted successfully"))
}
