package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleManager || r == RoleUser
}

type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Role     Role               `bson:"role" json:"role"`
	Password string             `bson:"password" json:"-"`
}

// Summary strips the user down to what task views display.
func (u User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

type UserSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// Actor is the authenticated identity behind a request. It is never persisted.
type Actor struct {
	ID   primitive.ObjectID `json:"id"`
	Role Role               `json:"role"`
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}
