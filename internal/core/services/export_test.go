package services

import "time"

// SetClock replaces the time source in tests.
func (s *PackageService) SetClock(now func() time.Time) { s.now = now }

func (s *DashboardService) SetClock(now func() time.Time) { s.now = now }

// SetMaxPages lowers the export page bound in tests.
func (s *ExportService) SetMaxPages(n int) { s.maxPages = n }
