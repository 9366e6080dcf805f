package messages

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Message types accepted by the send operation.
const (
	TypeText  = "text"
	TypeImage = "image"
)

// Message is the durable chat record. Text is stored as ciphertext together
// with the initialization vector; images are stored by reference.
type Message struct {
	ID          bson.ObjectID   `bson:"_id,omitempty"`
	SenderID    bson.ObjectID   `bson:"senderId"`
	GroupID     bson.ObjectID   `bson:"groupId"`
	MessageType string          `bson:"messageType"`
	CipherText  string          `bson:"messageText,omitempty"`
	IV          string          `bson:"iv,omitempty"`
	ImageURL    string          `bson:"imageUrl,omitempty"`
	ReadBy      []bson.ObjectID `bson:"readBy,omitempty"`
	CreatedAt   time.Time       `bson:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt"`
}

// View is the populated, decrypted shape returned to clients and emitted to
// live connections as the newMessage event.
type View struct {
	ID             string    `json:"_id"`
	SenderID       string    `json:"senderId"`
	SenderUsername string    `json:"senderUsername"`
	GroupID        string    `json:"groupId"`
	MessageType    string    `json:"messageType"`
	Text           string    `json:"messageText,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
