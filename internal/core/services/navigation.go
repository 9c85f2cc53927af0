package services

import "github.com/isavralabel/pickpoint-console/internal/core/domain"

type MenuItem struct {
	Name   string
	Path   string
	Icon   string
	Active bool
}

// Menu returns the entries visible to role, in table order, marking the
// entry that owns currentPath.
func Menu(role domain.Role, currentPath string) []MenuItem {
	current := domain.RouteFor(currentPath).Path
	var items []MenuItem
	for _, r := range domain.Routes {
		if !r.InMenu || !r.Permits(role) {
			continue
		}
		items = append(items, MenuItem{
			Name:   r.Name,
			Path:   r.Path,
			Icon:   r.Icon,
			Active: r.Path == current,
		})
	}
	return items
}
