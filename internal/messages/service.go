package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeecoo/vibro-backend/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput indicates a malformed send request.
	ErrInvalidInput = errors.New("messages: invalid input")
	// ErrNotMember indicates the acting user does not belong to the group.
	ErrNotMember = errors.New("messages: not a member of the group")
)

// Directory resolves membership and display names from the authoritative
// store. Reads are always fresh; the service never caches membership.
type Directory interface {
	IsMember(ctx context.Context, groupID, userID bson.ObjectID) (bool, error)
	Username(ctx context.Context, userID bson.ObjectID) (string, error)
}

// ServiceConfig describes the dependencies required for chat persistence.
type ServiceConfig struct {
	Database  *mongo.Database
	Directory Directory
	Clock     func() time.Time
	Logger    *zap.Logger
}

// Service persists chat messages, encrypting text at rest and decrypting it
// on the way out. It does not deliver anything itself; callers hand the
// returned View to the live fan-out.
type Service struct {
	coll      *mongo.Collection
	directory Directory
	codec     Codec
	now       func() time.Time
	logger    *zap.Logger
}

// NewService constructs the message service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("messages: database connection required")
	}
	if cfg.Directory == nil {
		return nil, fmt.Errorf("messages: directory dependency required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		coll:      cfg.Database.Collection(database.CollectionMessages),
		directory: cfg.Directory,
		now:       clock,
		logger:    logger,
	}, nil
}

// Send validates membership, encrypts the text and persists the message.
// The returned View carries the decrypted text for live delivery.
func (s *Service) Send(ctx context.Context, senderID, groupID bson.ObjectID, messageType, text, imageURL string) (View, error) {
	text = strings.TrimSpace(text)
	switch messageType {
	case TypeText:
		if text == "" {
			return View{}, fmt.Errorf("%w: text message requires message text", ErrInvalidInput)
		}
	case TypeImage:
		if imageURL == "" {
			return View{}, fmt.Errorf("%w: image message requires an image url", ErrInvalidInput)
		}
	default:
		return View{}, fmt.Errorf("%w: unknown message type %q", ErrInvalidInput, messageType)
	}

	member, err := s.directory.IsMember(ctx, groupID, senderID)
	if err != nil {
		return View{}, err
	}
	if !member {
		return View{}, ErrNotMember
	}

	now := s.now().UTC()
	record := Message{
		SenderID:    senderID,
		GroupID:     groupID,
		MessageType: messageType,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if messageType == TypeText {
		ciphertext, iv, err := s.codec.Encrypt(text, groupID.Hex())
		if err != nil {
			return View{}, err
		}
		record.CipherText = ciphertext
		record.IV = iv
	}

	result, err := s.coll.InsertOne(ctx, record)
	if err != nil {
		return View{}, err
	}
	record.ID = result.InsertedID.(bson.ObjectID)

	username, err := s.directory.Username(ctx, senderID)
	if err != nil {
		s.logger.Warn("sender username lookup failed", zap.String("sender", senderID.Hex()), zap.Error(err))
	}

	view := s.toView(record, username)
	view.Text = text
	return view, nil
}

// List returns the group's messages in chronological order, decrypted. A
// record that fails decryption is returned with placeholder text rather than
// failing the whole listing.
func (s *Service) List(ctx context.Context, userID, groupID bson.ObjectID) ([]View, error) {
	member, err := s.directory.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}

	cursor, err := s.coll.Find(ctx,
		bson.M{"groupId": groupID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var records []Message
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	usernames := make(map[bson.ObjectID]string, 4)
	views := make([]View, 0, len(records))
	for _, record := range records {
		username, ok := usernames[record.SenderID]
		if !ok {
			username, err = s.directory.Username(ctx, record.SenderID)
			if err != nil {
				s.logger.Warn("sender username lookup failed",
					zap.String("sender", record.SenderID.Hex()), zap.Error(err))
				username = ""
			}
			usernames[record.SenderID] = username
		}

		view := s.toView(record, username)
		if record.MessageType == TypeText {
			plaintext, err := s.codec.Decrypt(record.CipherText, record.IV, groupID.Hex())
			if err != nil {
				s.logger.Warn("message decryption failed",
					zap.String("message", record.ID.Hex()), zap.Error(err))
				plaintext = PlaceholderText
			}
			view.Text = plaintext
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) toView(record Message, username string) View {
	return View{
		ID:             record.ID.Hex(),
		SenderID:       record.SenderID.Hex(),
		SenderUsername: username,
		GroupID:        record.GroupID.Hex(),
		MessageType:    record.MessageType,
		ImageURL:       record.ImageURL,
		CreatedAt:      record.CreatedAt,
	}
}
