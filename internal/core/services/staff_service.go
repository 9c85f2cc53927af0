package services

import (
	"context"
	"strings"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const staffListKey = "list:staff"

type StaffService struct {
	api       ports.StaffAPI
	publisher ports.ActivityPublisher
}

func NewStaffService(api ports.StaffAPI, publisher ports.ActivityPublisher) *StaffService {
	return &StaffService{api: api, publisher: publisher}
}

func (s *StaffService) Controller(sess *Session) *ListController[domain.StaffAccount] {
	c := sessionValue(sess, staffListKey, func() *ListController[domain.StaffAccount] {
		return NewListController(func(ctx context.Context, q domain.ListQuery) (domain.Page[domain.StaffAccount], error) {
			var page domain.Page[domain.StaffAccount]
			err := authorized(ctx, sess, func(token string) error {
				var err error
				page, err = s.api.ListStaff(ctx, token, q)
				return err
			})
			return page, err
		})
	})
	c.Scope(identityOf(sess))
	return c
}

func (s *StaffService) Load(ctx context.Context, sess *Session) (ListView[domain.StaffAccount], error) {
	return loadList(ctx, s.Controller(sess), "list staff", "Failed to load staff members")
}

func (s *StaffService) Find(sess *Session, id int64) (domain.StaffAccount, bool) {
	return s.Controller(sess).Find(func(a domain.StaffAccount) bool { return a.ID == id })
}

func (s *StaffService) Create(ctx context.Context, sess *Session, in domain.StaffInput) error {
	in = trimStaff(in)
	if in.Username == "" || in.Password == "" || in.FullName == "" || in.LocationID == 0 {
		return domain.Invalid("Please fill all required fields")
	}
	err := authorized(ctx, sess, func(token string) error {
		return s.api.CreateStaff(ctx, token, in)
	})
	if err != nil {
		return fail("create staff", err, Messages{
			Generic:  "Failed to add staff member",
			Conflict: "Username already exists",
		})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityStaffChanged, "create", 0))
	return nil
}

// Update changes a staff account. A blank password is dropped from the
// payload, which the API treats as "unchanged".
func (s *StaffService) Update(ctx context.Context, sess *Session, id int64, in domain.StaffInput) error {
	in = trimStaff(in)
	if in.Username == "" || in.FullName == "" || in.LocationID == 0 {
		return domain.Invalid("Please fill all required fields")
	}
	err := authorized(ctx, sess, func(token string) error {
		return s.api.UpdateStaff(ctx, token, id, in)
	})
	if err != nil {
		return fail("update staff", err, Messages{
			Generic:  "Failed to update staff member",
			Conflict: "Username already exists",
		})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityStaffChanged, "update", id))
	return nil
}

func (s *StaffService) Delete(ctx context.Context, sess *Session, id int64) error {
	err := authorized(ctx, sess, func(token string) error {
		return s.api.DeleteStaff(ctx, token, id)
	})
	if err != nil {
		return fail("delete staff", err, Messages{
			Generic:  "Failed to delete staff member",
			Conflict: "Cannot delete staff member with associated packages",
		})
	}
	publish(ctx, s.publisher, activity(sess, ports.ActivityStaffChanged, "delete", id))
	return nil
}

func trimStaff(in domain.StaffInput) domain.StaffInput {
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
	return in
}
