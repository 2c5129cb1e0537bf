package catalog

import "github.com/fjod/go_cart/storefront/internal/domain"

// Flatten lists every category of the forest, parents before children.
func Flatten(tree []domain.Category) []domain.Category {
	var flat []domain.Category
	var walk func([]domain.Category)
	walk = func(cats []domain.Category) {
		for _, c := range cats {
			flat = append(flat, c)
			if len(c.Children) > 0 {
				walk(c.Children)
			}
		}
	}
	walk(tree)
	return flat
}

// Path is the breadcrumb from the root down to cat. A missing or cyclic
// parent link ends the walk.
func Path(all []domain.Category, cat domain.Category) []domain.Category {
	byID := make(map[string]domain.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	path := []domain.Category{cat}
	seen := map[string]bool{cat.ID: true}
	current := cat
	for !current.IsRoot() {
		parent, ok := byID[*current.FatherID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		path = append(path, parent)
		current = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Roots keeps the top-level categories of a flat or nested list.
func Roots(cats []domain.Category) []domain.Category {
	var roots []domain.Category
	for _, c := range cats {
		if c.IsRoot() {
			roots = append(roots, c)
		}
	}
	return roots
}
