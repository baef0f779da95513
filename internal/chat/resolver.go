package chat

import (
	"context"
	"errors"
	"strings"

	"quickbite/internal/models"
)

// Resolve finds the menu item for a free-text name: exact match first, then
// substring. When both miss, a singular form of the
// candidate ("burgers" -> "burger") is tried the same way.
func Resolve(ctx context.Context, catalog MenuCatalog, candidate string) (*models.MenuItem, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, models.ErrMenuItemNotFound
	}

	for _, name := range nameForms(candidate) {
		item, err := resolveOne(ctx, catalog, name)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, models.ErrMenuItemNotFound) {
			return nil, err
		}
	}
	return nil, models.ErrMenuItemNotFound
}

func resolveOne(ctx context.Context, catalog MenuCatalog, name string) (*models.MenuItem, error) {
	item, err := catalog.FindMenuItemByExactName(ctx, name)
	if err == nil && item != nil {
		return item, nil
	}
	if err != nil && !errors.Is(err, models.ErrMenuItemNotFound) {
		return nil, err
	}

	item, err = catalog.FindMenuItemBySubstring(ctx, name)
	if err == nil && item != nil {
		return item, nil
	}
	if err != nil && !errors.Is(err, models.ErrMenuItemNotFound) {
		return nil, err
	}
	return nil, models.ErrMenuItemNotFound
}

func nameForms(name string) []string {
	forms := []string{name}
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "ies") && len(name) > 4:
		forms = append(forms, name[:len(name)-3]+"y")
	case strings.HasSuffix(lower, "es") && len(name) > 3 && strings.ContainsAny(lower[len(lower)-3:len(lower)-2], "sxz"):
		forms = append(forms, name[:len(name)-2])
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") && len(name) > 2:
		forms = append(forms, name[:len(name)-1])
	}
	return forms
}

// MatchTags returns catalog items whose name or description contains any of
// the tags, in catalog order, up to limit (0 means no limit).
func MatchTags(items []models.MenuItem, tags []string, limit int) []models.MenuItem {
	var matches []models.MenuItem
	for _, item := range items {
		name := strings.ToLower(item.Name)
		desc := strings.ToLower(item.Description)
		for _, tag := range tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if strings.Contains(name, tag) || strings.Contains(desc, tag) {
				matches = append(matches, item)
				break
			}
		}
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches
}
