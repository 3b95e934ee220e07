package models

import (
	"time"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null;unique" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"-"`
}

// DefaultCategories are seeded on startup.
var DefaultCategories = []string{
	"Tops", "Bottoms", "Dresses", "Outerwear",
	"Shoes", "Accessories", "Bags", "Jewelry",
}
