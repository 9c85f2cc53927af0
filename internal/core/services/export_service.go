package services

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const (
	exportSheet    = "Packages"
	exportPageSize = 100
	exportMaxPages = 50
	exportTimeFmt  = "2006-01-02 15:04"
)

var exportHeader = []any{
	"Tracking Number", "Recipient", "Phone", "Unit", "Sender", "Carrier",
	"Location", "Status", "Price", "Received At", "Picked Up At", "Pickup Code",
}

// ExportService writes the packages matching the session's current filter
// to an xlsx workbook.
type ExportService struct {
	api      ports.PackageAPI
	packages *PackageService
	maxPages int
}

func NewExportService(api ports.PackageAPI, packages *PackageService) *ExportService {
	return &ExportService{api: api, packages: packages, maxPages: exportMaxPages}
}

// ExportResult describes a written workbook. Truncated is set when the
// filter matched more pages than the export fetches.
type ExportResult struct {
	Rows      int
	Truncated bool
}

// Collect fetches every page of the current filter, up to a fixed bound.
// The flag reports whether the server had pages beyond that bound.
func (s *ExportService) Collect(ctx context.Context, sess *Session) ([]domain.Package, bool, error) {
	q := s.packages.Controller(sess).Query()
	q.Limit = exportPageSize

	var all []domain.Package
	for page := 1; page <= s.maxPages; page++ {
		q.Page = page
		var result domain.Page[domain.Package]
		err := authorized(ctx, sess, func(token string) error {
			var err error
			result, err = s.api.ListPackages(ctx, token, q)
			return err
		})
		if err != nil {
			return nil, false, fail("export packages", err, Messages{Generic: "Failed to export packages"})
		}
		all = append(all, result.Items...)
		if page >= result.TotalPages {
			return all, false, nil
		}
	}
	return all, true, nil
}

func (s *ExportService) Write(ctx context.Context, sess *Session, w io.Writer) (ExportResult, error) {
	pkgs, truncated, err := s.Collect(ctx, sess)
	if err != nil {
		return ExportResult{}, err
	}
	if err := WritePackagesXLSX(w, pkgs); err != nil {
		return ExportResult{}, fail("write export", err, Messages{Generic: "Failed to export packages"})
	}
	return ExportResult{Rows: len(pkgs), Truncated: truncated}, nil
}

// TruncationNotice is shown when an export stopped at the row bound.
func TruncationNotice(rows int) string {
	return fmt.Sprintf("Export limited to the first %d packages. Narrow the filter to export the rest.", rows)
}

// WritePackagesXLSX renders pkgs as a single-sheet workbook.
func WritePackagesXLSX(w io.Writer, pkgs []domain.Package) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeader))
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "A", lastCol, 18); err != nil {
		return err
	}

	for i, p := range pkgs {
		pickedUp := ""
		if p.PickedUpAt != nil {
			pickedUp = p.PickedUpAt.Format(exportTimeFmt)
		}
		row := []any{
			p.TrackingNumber,
			p.Recipient.Name,
			p.Recipient.Phone,
			p.Recipient.Unit,
			p.Sender.Name,
			p.Carrier.Name,
			p.LocationName(),
			p.Status.Label(),
			int64(p.Price),
			p.ReceivedAt.Format(exportTimeFmt),
			pickedUp,
			p.PickupCode,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}
