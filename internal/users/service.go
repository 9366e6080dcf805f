package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jeecoo/vibro-backend/internal/auth"
	"github.com/jeecoo/vibro-backend/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const avatarURLTemplate = "https://api.dicebear.com/9.x/bottts/svg?seed=%s"

var (
	// ErrInvalidInput indicates a registration or update field failed validation.
	ErrInvalidInput = errors.New("users: invalid input")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("users: email already exists")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("users: username already exists")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrNotFound indicates the user document does not exist.
	ErrNotFound = errors.New("users: not found")
)

// ServiceConfig describes the dependencies required for account management.
type ServiceConfig struct {
	Database *mongo.Database
	Clock    func() time.Time
}

// Service manages account registration, login and profile updates.
type Service struct {
	users *mongo.Collection
	now   func() time.Time
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		users: cfg.Database.Collection(database.CollectionUsers),
		now:   clock,
	}, nil
}

// Register validates the fields, hashes the password and inserts the account.
func (s *Service) Register(ctx context.Context, email, username, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if email == "" || username == "" || password == "" {
		return User{}, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if len(password) < 6 {
		return User{}, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	if len(username) < 3 {
		return User{}, fmt.Errorf("%w: username must be at least 3 characters", ErrInvalidInput)
	}

	count, err := s.users.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return User{}, err
	}
	if count > 0 {
		return User{}, ErrEmailTaken
	}
	count, err = s.users.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return User{}, err
	}
	if count > 0 {
		return User{}, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	now := s.now().UTC()
	user := User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		ProfileImage: fmt.Sprintf(avatarURLTemplate, url.QueryEscape(username)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	user.ID = result.InsertedID.(bson.ObjectID)
	return user, nil
}

// Login verifies the credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}

	var user User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !auth.PasswordMatches(user.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the account for the given id.
func (s *Service) Get(ctx context.Context, userID bson.ObjectID) (User, error) {
	var user User
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// GetMany returns the accounts for the given ids, in no particular order.
func (s *Service) GetMany(ctx context.Context, userIDs []bson.ObjectID) ([]User, error) {
	if len(userIDs) == 0 {
		return []User{}, nil
	}
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	var found []User
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateUsername changes the display name on the account.
func (s *Service) UpdateUsername(ctx context.Context, userID bson.ObjectID, username string) (User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return User{}, fmt.Errorf("%w: username must be at least 3 characters", ErrInvalidInput)
	}

	update := bson.M{"$set": bson.M{"username": username, "updatedAt": s.now().UTC()}}
	result, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	if result.MatchedCount == 0 {
		return User{}, ErrNotFound
	}
	return s.Get(ctx, userID)
}

// SetDeviceToken records the push-notification token for the user's current install.
func (s *Service) SetDeviceToken(ctx context.Context, userID bson.ObjectID, token string) error {
	update := bson.M{"$set": bson.M{"deviceToken": strings.TrimSpace(token), "updatedAt": s.now().UTC()}}
	result, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
