package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the verified identity behind a request. It is handed to every
// authenticated handler explicitly.
type Caller struct {
	ID      primitive.ObjectID
	IsAdmin bool
}
