package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const AnonymousReviewer = "Anonymous"

type Review struct {
	ID        primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Name      string              `json:"name" bson:"name"`
	Stars     float64             `json:"stars" bson:"stars"`
	Text      string              `json:"text" bson:"text"`
	Anonymous bool                `json:"anonymous" bson:"anonymous"`
	UserEmail string              `json:"userEmail,omitempty" bson:"userEmail,omitempty"`
	OrderID   *primitive.ObjectID `json:"orderId,omitempty" bson:"orderId,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}
