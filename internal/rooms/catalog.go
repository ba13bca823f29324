package rooms

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultDescription = "Comfortable room with air conditioning"
	DefaultImage       = "/assets/img/room-default.jpg"
)

// ID identifies a room type. Daily records key their maps by the decimal
// string form of an ID; ParseID is the single place that conversion happens.
type ID int

func (id ID) String() string {
	return strconv.Itoa(int(id))
}

// ParseID normalizes a store or URL key into an ID.
func ParseID(raw string) (ID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid room id %q", raw)
	}
	return ID(n), nil
}

// RoomType is a category of room with its defaults. Daily records override
// the rate and unit count per date.
type RoomType struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	DefaultRate int    `json:"default_rate"`
	TotalUnits  int    `json:"total_units"`
}

// Catalog is the immutable set of room types, ordered by ascending ID.
type Catalog struct {
	types []RoomType
	byID  map[ID]RoomType
}

func NewCatalog(types ...RoomType) (*Catalog, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("catalog requires at least one room type")
	}
	byID := make(map[ID]RoomType, len(types))
	ordered := make([]RoomType, 0, len(types))
	for _, rt := range types {
		if rt.ID <= 0 {
			return nil, fmt.Errorf("room type %q has non-positive id %d", rt.Name, rt.ID)
		}
		if _, dup := byID[rt.ID]; dup {
			return nil, fmt.Errorf("duplicate room type id %d", rt.ID)
		}
		if rt.DefaultRate < 0 || rt.TotalUnits < 0 {
			return nil, fmt.Errorf("room type %d has negative defaults", rt.ID)
		}
		if rt.Description == "" {
			rt.Description = DefaultDescription
		}
		if rt.Image == "" {
			rt.Image = DefaultImage
		}
		byID[rt.ID] = rt
		ordered = append(ordered, rt)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return &Catalog{types: ordered, byID: byID}, nil
}

// DefaultCatalog returns the four room types the property rents.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		RoomType{
			ID:          1,
			Name:        "Double bed A/C",
			Description: "Comfortable room with double bed, perfect for couples",
			Image:       "/assets/img/room-1.jpg",
			DefaultRate: 1800,
			TotalUnits:  5,
		},
		RoomType{
			ID:          2,
			Name:        "Triple Bed A/C",
			Description: "Spacious room with triple bed, ideal for small families",
			Image:       "/assets/img/room-2.jpg",
			DefaultRate: 2000,
			TotalUnits:  5,
		},
		RoomType{
			ID:          3,
			Name:        "Four Bed A/C",
			Description: "Roomy accommodation with four bed, great for groups",
			Image:       "/assets/img/room-3.jpg",
			DefaultRate: 2200,
			TotalUnits:  5,
		},
		RoomType{
			ID:          4,
			Name:        "Five Bed A/C",
			Description: "Luxurious room with five bed, perfect for large families",
			Image:       "/assets/img/room-3.jpg",
			DefaultRate: 2400,
			TotalUnits:  5,
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(id ID) (RoomType, bool) {
	rt, ok := c.byID[id]
	return rt, ok
}

func (c *Catalog) Contains(id ID) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns a copy of the room types in ascending ID order.
func (c *Catalog) All() []RoomType {
	out := make([]RoomType, len(c.types))
	copy(out, c.types)
	return out
}

func (c *Catalog) IDs() []ID {
	out := make([]ID, len(c.types))
	for i, rt := range c.types {
		out[i] = rt.ID
	}
	return out
}

// DefaultRate is 0 for unknown ids.
func (c *Catalog) DefaultRate(id ID) int {
	return c.byID[id].DefaultRate
}

// TotalUnits is 0 for unknown ids.
func (c *Catalog) TotalUnits(id ID) int {
	return c.byID[id].TotalUnits
}
