package services

import (
	"context"
	"strings"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const recipientsListKey = "list:recipients"

// recipientOptionsLimit bounds the recipient picker of the receive form.
const recipientOptionsLimit = 100

type RecipientService struct {
	api       ports.RecipientAPI
	publisher ports.ActivityPublisher
}

func NewRecipientService(api ports.RecipientAPI, publisher ports.ActivityPublisher) *RecipientService {
	return &RecipientService{api: api, publisher: publisher}
}

func (s *RecipientService) Controller(sess *Session) *ListController[domain.Recipient] {
	c := sessionValue(sess, recipientsListKey, func() *ListController[domain.Recipient] {
		return NewListController(func(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Recipient], error) {
			var page domain.Page[domain.Recipient]
			err := authorized(ctx, sess, func(token string) error {
				var err error
				page, err = s.api.ListRecipients(ctx, token, q)
				return err
			})
			return page, err
		})
	})
	c.Scope(identityOf(sess))
	return c
}

func (s *RecipientService) Load(ctx context.Context, sess *Session) (ListView[domain.Recipient], error) {
	return loadList(ctx, s.Controller(sess), "list recipients", "Failed to load recipients")
}

func (s *RecipientService) Find(sess *Session, id int64) (domain.Recipient, bool) {
	return s.Controller(sess).Find(func(r domain.Recipient) bool { return r.ID == id })
}

// Options lists recipients for pickers, scoped like the list screen.
func (s *RecipientService) Options(ctx context.Context, sess *Session) ([]domain.Recipient, error) {
	q := domain.ListQuery{Page: 1, Limit: recipientOptionsLimit}
	identity := identityOf(sess)
	if identity.Role == domain.RoleStaff {
		q.LocationID = identity.LocationID
	}
	var page domain.Page[domain.Recipient]
	err := authorized(ctx, sess, func(token string) error {
		var err error
		page, err = s.api.ListRecipients(ctx, token, q)
		return err
	})
	if err != nil {
		return nil, fail("list recipient options", err, Messages{Generic: "Failed to load recipients"})
	}
	return page.Items, nil
}

func (s *RecipientService) Create(ctx context.Context, sess *Session, in domain.RecipientInput) error {
	in, err := s.prepare(sess, in)
	if err != nil {
		return err
	}
	err = authorized(ctx, sess, func(token string) error {
		return s.api.CreateRecipient(ctx, token, in)
	})
	if err != nil {
		return fail("create recipient", err, Messages{Generic: "Failed to add recipient", PreferServer: true})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityRecipientChanged, "create", 0))
	return nil
}

func (s *RecipientService) Update(ctx context.Context, sess *Session, id int64, in domain.RecipientInput) error {
	in, err := s.prepare(sess, in)
	if err != nil {
		return err
	}
	err = authorized(ctx, sess, func(token string) error {
		return s.api.UpdateRecipient(ctx, token, id, in)
	})
	if err != nil {
		return fail("update recipient", err, Messages{Generic: "Failed to update recipient", PreferServer: true})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityRecipientChanged, "update", id))
	return nil
}

func (s *RecipientService) Delete(ctx context.Context, sess *Session, id int64) error {
	err := authorized(ctx, sess, func(token string) error {
		return s.api.DeleteRecipient(ctx, token, id)
	})
	if err != nil {
		return fail("delete recipient", err, Messages{
			Generic:  "Failed to delete recipient",
			Conflict: "Cannot delete recipient with associated packages",
		})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityRecipientChanged, "delete", id))
	return nil
}

func (s *RecipientService) prepare(sess *Session, in domain.RecipientInput) (domain.RecipientInput, error) {
	identity := identityOf(sess)
	if identity.Role == domain.RoleStaff {
		in.LocationID = identity.LocationID
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Name == "" || in.Phone == "" || in.LocationID == 0 {
		return in, domain.Invalid("Please fill all required fields")
	}
	return in, nil
}
