package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is created on first sign-in and never deleted.
type User struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Name      string             `json:"name" bson:"name"`
	Image     string             `json:"image,omitempty" bson:"image,omitempty"`
	Phone     string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Address   string             `json:"address,omitempty" bson:"address,omitempty"`
	Role      string             `json:"role" bson:"role"`
	TimeStamp int64              `json:"timeStamp" bson:"timeStamp"`
}

// Profile holds the fields a user may edit on their own account.
type Profile struct {
	Name    string `json:"name" bson:"name"`
	Image   string `json:"image" bson:"image"`
	Address string `json:"address" bson:"address"`
	Phone   string `json:"phone" bson:"phone"`
}

// ValidRole reports whether role can be assigned through the admin screen.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
