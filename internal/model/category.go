package model

import (
	"strings"
	"time"
)

// Category labels expenses. Expenses store the category name, so deleting
// a category leaves them untouched.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Version   int64     `json:"-"`
}

func (c *Category) Collection() Collection { return CollectionCategories }
func (c *Category) DocID() string          { return c.ID }
func (c *Category) DocVersion() int64      { return c.Version }
func (c *Category) SetVersion(v int64)     { c.Version = v }

func (c *Category) Validate() error {
	if c.ID == "" {
		return invalid("category", "", "id", "is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return invalid("category", c.ID, "name", "is required")
	}
	return nil
}
