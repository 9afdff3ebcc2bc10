// Package catalog holds the static menu. It is read-only after construction
// and safe for concurrent use.
package catalog

import (
	"sort"
	"strings"

	"github.com/Skotchmaster/canteen/internal/models"
)

type Catalog struct {
	items []models.Item
	byID  map[uint]models.Item
}

// New builds a catalog from items, ordered by id. Later duplicates replace earlier ones.
func New(items []models.Item) *Catalog {
	byID := make(map[uint]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	sorted := make([]models.Item, 0, len(byID))
	for _, it := range byID {
		sorted = append(sorted, it)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	return &Catalog{items: sorted, byID: byID}
}

func Default() *Catalog {
	return New(DefaultMenu())
}

func DefaultMenu() []models.Item {
	return []models.Item{
		{ID: 1, Name: "Chicken Biriyani", Price: 249, Image: "https://images.unsplash.com/photo-1563379091339-03b21ab4a4f8?w=400&h=300&fit=crop"},
		{ID: 2, Name: "Vegetable Biriyani", Price: 249, Image: "https://images.unsplash.com/photo-1596797038530-2c107229654b?w=400&h=300&fit=crop"},
		{ID: 3, Name: "Meals", Price: 249, Image: "https://images.unsplash.com/photo-1585937421612-70a008356fbe?w=400&h=300&fit=crop"},
		{ID: 4, Name: "Dosa", Price: 249, Image: "https://images.unsplash.com/photo-1668236543090-82eba5ee5976?w=400&h=300&fit=crop"},
		{ID: 5, Name: "Poori", Price: 249, Image: "https://images.unsplash.com/photo-1601050690597-df0568f70950?w=400&h=300&fit=crop"},
	}
}

func (c *Catalog) List() []models.Item {
	out := make([]models.Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Lookup(id uint) (models.Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Search matches q against item names, case-insensitively.
func (c *Catalog) Search(q string) []models.Item {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]models.Item, 0)
	if q == "" {
		return out
	}
	for _, it := range c.items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}
