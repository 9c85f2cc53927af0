package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

type notificationsView struct {
	Templates    []domain.NotificationTemplate
	Selected     domain.NotificationTemplate
	Placeholders []domain.Placeholder
}

// NotificationSettings shows the template named by ?id, the first template,
// or an empty form when none exist yet.
func (c *Console) NotificationSettings(w http.ResponseWriter, r *http.Request) {
	templates, err := c.svc.Templates.List(r.Context(), c.session(r))
	var inline []notice
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.fail(w, r, err, domain.LoginPath)
			return
		}
		inline = append(inline, failure(services.Message(err)))
	}

	view := notificationsView{Templates: templates, Placeholders: domain.Placeholders}
	id, _ := parseOptionalID(r.URL.Query().Get("id"))
	for _, t := range templates {
		if t.ID == id {
			view.Selected = t
			break
		}
	}
	if view.Selected.ID == 0 && id == 0 && len(templates) > 0 && !r.URL.Query().Has("new") {
		view.Selected = templates[0]
	}
	c.render(w, r, http.StatusOK, "notifications.html", view, inline...)
}

func (c *Console) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := parseOptionalID(r.PostFormValue("id"))
	if err != nil {
		c.fail(w, r, err, "/notification-settings")
		return
	}
	in := domain.TemplateInput{
		TemplateName:    r.PostFormValue("templateName"),
		TemplateContent: r.PostFormValue("templateContent"),
	}
	saved, err := c.svc.Templates.Save(r.Context(), c.session(r), id, in)
	if err != nil {
		c.fail(w, r, err, templatePath(id))
		return
	}

	msg := "Template updated successfully"
	if id == 0 {
		msg = "Template created successfully"
	}
	c.redirect(w, r, templatePath(saved.ID), success(msg))
}

func (c *Console) SendTestMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseOptionalID(r.PostFormValue("templateId"))
	if err != nil {
		c.fail(w, r, err, "/notification-settings")
		return
	}
	err = c.svc.Templates.SendTest(r.Context(), c.session(r), id, r.PostFormValue("templateContent"), r.PostFormValue("phoneNumber"))
	if err != nil {
		c.fail(w, r, err, templatePath(id))
		return
	}
	c.redirect(w, r, templatePath(id), success("Test message sent successfully"))
}

func templatePath(id int64) string {
	if id == 0 {
		return "/notification-settings"
	}
	return fmt.Sprintf("/notification-settings?id=%d", id)
}
