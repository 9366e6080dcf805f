package users

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the account document: profile, credentials and the push device token.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email        string        `bson:"email" json:"email"`
	Username     string        `bson:"username" json:"username"`
	PasswordHash string        `bson:"password" json:"-"`
	ProfileImage string        `bson:"profileImage" json:"profileImage"`
	DeviceToken  string        `bson:"deviceToken,omitempty" json:"-"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}
