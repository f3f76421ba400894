package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents an item in the catalog. ReviewIDs is the stored
// ordered list of review references; Reviews is filled in when the
// product is read back through the catalog.
type Product struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Price       float64              `bson:"price" json:"price"`
	Category    string               `bson:"category" json:"category"`
	Image       string               `bson:"image" json:"image"`
	Stock       int                  `bson:"stock" json:"stock"`
	ReviewIDs   []primitive.ObjectID `bson:"reviews" json:"-"`
	Reviews     []Review             `bson:"-" json:"reviews"`
}

// ProductInput is the body of POST /products
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required"`
	Image       string   `json:"image" validate:"required"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
}

// Product builds a new catalog entry with an empty review list.
func (in ProductInput) Product() Product {
	p := Product{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Image:       in.Image,
		ReviewIDs:   []primitive.ObjectID{},
		Reviews:     []Review{},
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	return p
}

// ProductUpdate is the body of PUT /products/{id}. Only non-nil fields
// are applied, each under the same rules as creation.
type ProductUpdate struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string  `json:"description,omitempty" validate:"omitempty,min=1"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1"`
	Image       *string  `json:"image,omitempty" validate:"omitempty,min=1"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// Empty reports whether the update carries no fields.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil &&
		u.Category == nil && u.Image == nil && u.Stock == nil
}

// Apply merges the present fields into p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
}
