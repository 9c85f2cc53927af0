package services

import (
	"context"
	"strings"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

// TemplateService manages the notification message templates.
type TemplateService struct {
	api       ports.TemplateAPI
	publisher ports.ActivityPublisher
}

func NewTemplateService(api ports.TemplateAPI, publisher ports.ActivityPublisher) *TemplateService {
	return &TemplateService{api: api, publisher: publisher}
}

func (s *TemplateService) List(ctx context.Context, sess *Session) ([]domain.NotificationTemplate, error) {
	var templates []domain.NotificationTemplate
	err := authorized(ctx, sess, func(token string) error {
		var err error
		templates, err = s.api.ListTemplates(ctx, token)
		return err
	})
	if err != nil {
		return nil, fail("list templates", err, Messages{Generic: "Failed to load notification templates"})
	}
	return templates, nil
}

// Save creates the template when id is zero and updates it otherwise. It
// returns the saved template.
func (s *TemplateService) Save(ctx context.Context, sess *Session, id int64, in domain.TemplateInput) (domain.NotificationTemplate, error) {
	in.TemplateName = strings.TrimSpace(in.TemplateName)
	if in.TemplateName == "" || strings.TrimSpace(in.TemplateContent) == "" {
		return domain.NotificationTemplate{}, domain.Invalid("Please provide both template name and content")
	}

	saved := domain.NotificationTemplate{ID: id, TemplateName: in.TemplateName, TemplateContent: in.TemplateContent}
	err := authorized(ctx, sess, func(token string) error {
		if id != 0 {
			return s.api.UpdateTemplate(ctx, token, id, in)
		}
		created, err := s.api.CreateTemplate(ctx, token, in)
		if err == nil {
			saved = created
		}
		return err
	})
	if err != nil {
		return domain.NotificationTemplate{}, fail("save template", err, Messages{Generic: "Failed to save template"})
	}

	action := "update"
	if id == 0 {
		action = "create"
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityTemplateChanged, action, saved.ID))
	return saved, nil
}

// SendTest sends the template to a phone number through the server's
// notification channel.
func (s *TemplateService) SendTest(ctx context.Context, sess *Session, templateID int64, content, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return domain.Invalid("Please enter a phone number for testing")
	}
	if strings.TrimSpace(content) == "" {
		return domain.Invalid("Template content cannot be empty")
	}
	if templateID == 0 {
		return domain.Invalid("Please save the template before sending a test")
	}
	err := authorized(ctx, sess, func(token string) error {
		return s.api.SendTestMessage(ctx, token, domain.TestMessage{TemplateID: templateID, PhoneNumber: phone})
	})
	return fail("send test message", err, Messages{Generic: "Failed to send test message"})
}
