package pickpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
)

// listParams renders the shared list query. Empty filters are omitted.
func listParams(q domain.ListQuery) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.LocationID != 0 {
		v.Set("locationId", strconv.FormatInt(q.LocationID, 10))
	}
	if q.StartDate != nil && q.EndDate != nil {
		v.Set("startDate", q.StartDate.Format(domain.DateLayout))
		v.Set("endDate", q.EndDate.Format(domain.DateLayout))
	}
	return v
}

// Recipients

func (c *Client) ListRecipients(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.Recipient], error) {
	req, _ := c.jsonRequest("recipients_list", http.MethodGet, "/recipients", token, nil)
	req.query = listParams(q)
	var resp struct {
		Recipients []domain.Recipient `json:"recipients"`
		TotalPages int                `json:"totalPages"`
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return domain.Page[domain.Recipient]{}, err
	}
	return domain.Page[domain.Recipient]{Items: resp.Recipients, TotalPages: resp.TotalPages}, nil
}

func (c *Client) CreateRecipient(ctx context.Context, token string, in domain.RecipientInput) error {
	req, err := c.jsonRequest("recipients_create", http.MethodPost, "/recipients", token, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) UpdateRecipient(ctx context.Context, token string, id int64, in domain.RecipientInput) error {
	req, err := c.jsonRequest("recipients_update", http.MethodPut, idPath("/recipients/%d", id), token, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) DeleteRecipient(ctx context.Context, token string, id int64) error {
	req, _ := c.jsonRequest("recipients_delete", http.MethodDelete, idPath("/recipients/%d", id), token, nil)
	return c.do(ctx, req, nil)
}

// Packages

func (c *Client) ListPackages(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.Package], error) {
	req, _ := c.jsonRequest("packages_list", http.MethodGet, "/packages", token, nil)
	req.query = listParams(q)
	var resp struct {
		Packages   []domain.Package `json:"packages"`
		TotalPages int              `json:"totalPages"`
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return domain.Page[domain.Package]{}, err
	}
	return domain.Page[domain.Package]{Items: resp.Packages, TotalPages: resp.TotalPages}, nil
}

// CreatePackage posts the receive form as multipart/form-data, the only
// format the endpoint accepts because of the optional photo.
func (c *Client) CreatePackage(ctx context.Context, token string, p domain.NewPackage) (domain.Package, error) {
	body, contentType, err := packageForm(p)
	if err != nil {
		return domain.Package{}, err
	}
	req := request{
		endpoint:    "packages_create",
		method:      http.MethodPost,
		path:        "/packages",
		token:       token,
		body:        body,
		contentType: contentType,
	}

	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return domain.Package{}, err
	}
	return decodeCreatedPackage(raw), nil
}

// decodeCreatedPackage accepts both {"package": {...}} and a bare package.
// The console only needs the id, so an unexpected shape yields a zero value.
func decodeCreatedPackage(raw json.RawMessage) domain.Package {
	if len(raw) == 0 {
		return domain.Package{}
	}
	var wrapped struct {
		Package *domain.Package `json:"package"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.Package != nil {
		return *wrapped.Package
	}
	var bare domain.Package
	_ = json.Unmarshal(raw, &bare)
	return bare
}

func packageForm(p domain.NewPackage) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"trackingNumber", p.TrackingNumber},
		{"recipientId", formID(p.RecipientID)},
		{"newRecipient", strconv.FormatBool(p.NewRecipient)},
		{"recipientName", p.RecipientName},
		{"recipientPhone", p.RecipientPhone},
		{"recipientUnit", p.RecipientUnit},
		{"senderName", p.SenderName},
		{"carrierName", p.CarrierName},
		{"packageDescription", p.PackageDescription},
		{"locationId", formID(p.LocationID)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if p.Image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="packageImage"; filename=%q`, p.Image.Filename))
		h.Set("Content-Type", p.Image.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(p.Image.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func formID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func (c *Client) PickupPackage(ctx context.Context, token string, id int64, pickup domain.PickupRequest) (domain.PickupResult, error) {
	req, err := c.jsonRequest("packages_pickup", http.MethodPut, idPath("/packages/%d/pickup", id), token, pickup)
	if err != nil {
		return domain.PickupResult{}, err
	}
	var result domain.PickupResult
	if err := c.do(ctx, req, &result); err != nil {
		return domain.PickupResult{}, err
	}
	return result, nil
}

func (c *Client) NotifyPackage(ctx context.Context, token string, id int64) error {
	req, err := c.jsonRequest("packages_notify", http.MethodPost, idPath("/packages/%d/notify", id), token, struct{}{})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// Staff

func (c *Client) ListStaff(ctx context.Context, token string, q domain.ListQuery) (domain.Page[domain.StaffAccount], error) {
	req, _ := c.jsonRequest("staff_list", http.MethodGet, "/users/staff", token, nil)
	req.query = listParams(q)
	var resp struct {
		Staff      []domain.StaffAccount `json:"staff"`
		TotalPages int                   `json:"totalPages"`
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return domain.Page[domain.StaffAccount]{}, err
	}
	return domain.Page[domain.StaffAccount]{Items: resp.Staff, TotalPages: resp.TotalPages}, nil
}

func (c *Client) CreateStaff(ctx context.Context, token string, in domain.StaffInput) error {
	req, err := c.jsonRequest("staff_create", http.MethodPost, "/users/staff", token, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) UpdateStaff(ctx context.Context, token string, id int64, in domain.StaffInput) error {
	req, err := c.jsonRequest("staff_update", http.MethodPut, idPath("/users/staff/%d", id), token, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) DeleteStaff(ctx context.Context, token string, id int64) error {
	req, _ := c.jsonRequest("staff_delete", http.MethodDelete, idPath("/users/staff/%d", id), token, nil)
	return c.do(ctx, req, nil)
}

// Notification templates

func (c *Client) ListTemplates(ctx context.Context, token string) ([]domain.NotificationTemplate, error) {
	req, _ := c.jsonRequest("templates_list", http.MethodGet, "/notification-templates", token, nil)
	var templates []domain.NotificationTemplate
	if err := c.do(ctx, req, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *Client) CreateTemplate(ctx context.Context, token string, in domain.TemplateInput) (domain.NotificationTemplate, error) {
	req, err := c.jsonRequest("templates_create", http.MethodPost, "/notification-templates", token, in)
	if err != nil {
		return domain.NotificationTemplate{}, err
	}
	var created domain.NotificationTemplate
	if err := c.do(ctx, req, &created); err != nil {
		return domain.NotificationTemplate{}, err
	}
	return created, nil
}

func (c *Client) UpdateTemplate(ctx context.Context, token string, id int64, in domain.TemplateInput) error {
	req, err := c.jsonRequest("templates_update", http.MethodPut, idPath("/notification-templates/%d", id), token, in)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) SendTestMessage(ctx context.Context, token string, msg domain.TestMessage) error {
	req, err := c.jsonRequest("templates_test", http.MethodPost, "/notification-templates/test", token, msg)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// Dashboard

func (c *Client) DashboardStats(ctx context.Context, token string, q domain.DashboardQuery) (domain.Dashboard, error) {
	req, _ := c.jsonRequest("dashboard_stats", http.MethodGet, "/dashboard/stats", token, nil)
	req.query = url.Values{
		"startDate": {q.StartDate.Format(domain.DateLayout)},
		"endDate":   {q.EndDate.Format(domain.DateLayout)},
		"period":    {string(q.Period)},
	}
	if q.LocationID != 0 {
		req.query.Set("locationId", strconv.FormatInt(q.LocationID, 10))
	}
	var dash domain.Dashboard
	if err := c.do(ctx, req, &dash); err != nil {
		return domain.Dashboard{}, err
	}
	return dash, nil
}
