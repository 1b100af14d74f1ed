// Package catalog holds the static list of collectible items. The list is
// shipped as an embedded YAML file and never changes at runtime.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Category groups items into collection sets
type Category string

const (
	CategoryFan       Category = "fan"
	CategoryKitchen   Category = "kitchen"
	CategoryCooling   Category = "cooling"
	CategoryCleaning  Category = "cleaning"
	CategoryClimate   Category = "climate"
	CategorySmart     Category = "smart"
	CategoryLifestyle Category = "lifestyle"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryFan,
	CategoryKitchen,
	CategoryCooling,
	CategoryCleaning,
	CategoryClimate,
	CategorySmart,
	CategoryLifestyle,
}

// Rarity is an item's rarity tier
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Item is a collectible catalog entry
type Item struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Icon        string   `yaml:"icon" json:"icon"`
	Image       string   `yaml:"image" json:"image"`
	Description string   `yaml:"description" json:"description"`
	Requirement string   `yaml:"requirement" json:"requirement"`
	Color       string   `yaml:"color" json:"color"`
	Category    Category `yaml:"category" json:"category"`
	Rarity      Rarity   `yaml:"rarity" json:"rarity"`
}

// Catalog is a read-only lookup over the items
type Catalog struct {
	items []Item
	byID  map[string]Item
}

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// Parse builds a catalog from YAML
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		items: make([]Item, 0, len(file.Items)),
		byID:  make(map[string]Item, len(file.Items)),
	}
	for _, item := range file.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("catalog item %q has no id", item.Name)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog item %q", item.ID)
		}
		c.items = append(c.items, item)
		c.byID[item.ID] = item
	}
	return c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the embedded catalog
func Default() *Catalog {
	return defaultCatalog()
}

// Get returns an item by id
func (c *Catalog) Get(id string) (Item, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// Has reports whether id names a catalog item
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Items returns all items in display order
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Size returns the number of items
func (c *Catalog) Size() int {
	return len(c.items)
}

// CategoryOf returns the category of an item, or "" for unknown ids
func (c *Catalog) CategoryOf(id string) Category {
	return c.byID[id].Category
}

// ByCategory returns the items of one category
func (c *Catalog) ByCategory(category Category) []Item {
	var out []Item
	for _, item := range c.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}
