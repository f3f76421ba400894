// Package cart is the client-side shopping cart. It never talks to the
// server and does not check stock.
package cart

import (
	"go-storefront/models"
)

// Line is one product in the cart. Quantity is always at least 1.
type Line struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Subtotal is price times quantity for the line.
func (l Line) Subtotal() float64 {
	return l.Product.Price * float64(l.Quantity)
}

// Cart keeps lines in the order products were first added. The zero
// value is an empty cart ready to use. A Cart is not safe for concurrent
// use.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one more unit of p into the cart.
func (c *Cart) Add(p models.Product) {
	if i := c.index(p.ID.Hex()); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// Remove drops the line for id. Unknown ids are ignored.
func (c *Cart) Remove(id string) {
	if i := c.index(id); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// UpdateQuantity sets the quantity of an existing line, raising anything
// below 1 to 1. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	i := c.index(id)
	if i < 0 {
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	c.lines[i].Quantity = quantity
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart contents in display order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len is the number of distinct products in the cart.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Quantity returns how many units of id are in the cart.
func (c *Cart) Quantity(id string) int {
	if i := c.index(id); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Total is the sum of all line subtotals, computed on every call.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

func (c *Cart) index(id string) int {
	for i, l := range c.lines {
		if l.Product.ID.Hex() == id {
			return i
		}
	}
	return -1
}
