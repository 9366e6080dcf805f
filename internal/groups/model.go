package groups

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Group is the durable group document. Membership is not stored here; the
// Membership join collection is the sole authority for who belongs and who
// administers.
type Group struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	GroupName  string        `bson:"groupName" json:"groupName"`
	GroupPhoto string        `bson:"groupPhoto" json:"groupPhoto"`
	IsActive   bool          `bson:"isActive" json:"isActive"`
	CreatedBy  bson.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Membership links a user to a group with the admin flag and the per-group
// sound-monitoring preference.
type Membership struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID       bson.ObjectID `bson:"userid" json:"userid"`
	GroupID      bson.ObjectID `bson:"groupid" json:"groupid"`
	IsAdmin      bool          `bson:"isAdmin" json:"isAdmin"`
	MonitoringOn bool          `bson:"isMonitoringOn" json:"isMonitoringOn"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}
