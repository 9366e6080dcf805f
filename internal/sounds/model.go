package sounds

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DetectedSound is one classification result reported by the audio client.
// Records are short-lived: a background job prunes anything older than the
// retention window.
type DetectedSound struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID     bson.ObjectID `bson:"userid" json:"userid"`
	Label      string        `bson:"label" json:"label"`
	Confidence string        `bson:"confidence" json:"confidence"`
	Sound      string        `bson:"sound,omitempty" json:"sound,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// CustomFolder organizes a group's uploaded sound samples.
type CustomFolder struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	FolderName string        `bson:"folderName" json:"folderName"`
	GroupID    bson.ObjectID `bson:"groupId" json:"groupId"`
	CreatedBy  bson.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// CustomSound is one uploaded sample. The Sound field holds the encoded wav
// payload and is omitted from listings.
type CustomSound struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	GroupID   bson.ObjectID `bson:"groupId" json:"groupId"`
	UserID    bson.ObjectID `bson:"userId" json:"userId"`
	FolderID  bson.ObjectID `bson:"folderId" json:"folderId"`
	Sound     string        `bson:"sound" json:"sound,omitempty"`
	Filename  string        `bson:"filename" json:"filename"`
	MimeType  string        `bson:"mimeType" json:"mimeType"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// ClassifierModel points a group at its trained audio-classification model.
type ClassifierModel struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	GroupID   bson.ObjectID `bson:"groupId" json:"groupId"`
	ModelName string        `bson:"modelName" json:"modelName"`
	ModelPath string        `bson:"modelPath" json:"modelPath"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
