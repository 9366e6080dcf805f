package sounds

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
)

// DetectedRetention is how long detected-sound records are kept before the
// pruner deletes them.
const DetectedRetention = time.Hour

var (
	// ErrInvalidInput indicates a malformed sound or folder request.
	ErrInvalidInput = errors.New("sounds: invalid input")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("sounds: not found")
)

// ServiceConfig describes the dependencies for sound records.
type ServiceConfig struct {
	Database *mongo.Database
	Clock    func() time.Time
}

// Service persists detected sounds, the custom sample library and the
// per-group classifier model records.
type Service struct {
	detected *mongo.Collection
	folders  *mongo.Collection
	custom   *mongo.Collection
	models   *mongo.Collection
	now      func() time.Time
}

// NewService constructs the sound service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("sounds: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		detected: cfg.Database.Collection(database.CollectionDetectedSounds),
		folders:  cfg.Database.Collection(database.CollectionCustomFolders),
		custom:   cfg.Database.Collection(database.CollectionCustomSounds),
		models:   cfg.Database.Collection(database.CollectionModels),
		now:      clock,
	}, nil
}

// AddDetected stores a classification result for the user.
func (s *Service) AddDetected(ctx context.Context, userID bson.ObjectID, label, confidence, sound string) (DetectedSound, error) {
	label = strings.TrimSpace(label)
	confidence = strings.TrimSpace(confidence)
	if label == "" || confidence == "" {
		return DetectedSound{}, fmt.Errorf("%w: label and confidence are required", ErrInvalidInput)
	}

	now := s.now().UTC()
	record := DetectedSound{
		UserID:     userID,
		Label:      label,
		Confidence: confidence,
		Sound:      sound,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	result, err := s.detected.InsertOne(ctx, record)
	if err != nil {
		return DetectedSound{}, err
	}
	record.ID = result.InsertedID.(bson.ObjectID)
	return record, nil
}

// DetectedFor returns the user's detected sounds, newest first.
func (s *Service) DetectedFor(ctx context.Context, userID bson.ObjectID) ([]DetectedSound, error) {
	cursor, err := s.detected.Find(ctx,
		bson.M{"userid": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var found []DetectedSound
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// PruneDetected deletes detected-sound records older than the retention
// window and returns how many were removed.
func (s *Service) PruneDetected(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-DetectedRetention)
	result, err := s.detected.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// CreateFolder adds a sample folder to the group.
func (s *Service) CreateFolder(ctx context.Context, groupID, creatorID bson.ObjectID, name string) (CustomFolder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CustomFolder{}, fmt.Errorf("%w: folder name is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	folder := CustomFolder{
		FolderName: name,
		GroupID:    groupID,
		CreatedBy:  creatorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	result, err := s.folders.InsertOne(ctx, folder)
	if err != nil {
		return CustomFolder{}, err
	}
	folder.ID = result.InsertedID.(bson.ObjectID)
	return folder, nil
}

// FoldersFor lists the group's sample folders.
func (s *Service) FoldersFor(ctx context.Context, groupID bson.ObjectID) ([]CustomFolder, error) {
	cursor, err := s.folders.Find(ctx, bson.M{"groupId": groupID})
	if err != nil {
		return nil, err
	}
	var found []CustomFolder
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// AddCustomSound stores an uploaded sample in a folder.
func (s *Service) AddCustomSound(ctx context.Context, groupID, userID, folderID bson.ObjectID, sound, filename, mimeType string) (CustomSound, error) {
	if sound == "" {
		return CustomSound{}, fmt.Errorf("%w: sound payload is required", ErrInvalidInput)
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	now := s.now().UTC()
	record := CustomSound{
		GroupID:   groupID,
		UserID:    userID,
		FolderID:  folderID,
		Sound:     sound,
		Filename:  filename,
		MimeType:  mimeType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	result, err := s.custom.InsertOne(ctx, record)
	if err != nil {
		return CustomSound{}, err
	}
	record.ID = result.InsertedID.(bson.ObjectID)
	record.Sound = ""
	return record, nil
}

// SoundsInFolder lists a folder's samples without the wav payloads.
func (s *Service) SoundsInFolder(ctx context.Context, folderID bson.ObjectID) ([]CustomSound, error) {
	cursor, err := s.custom.Find(ctx,
		bson.M{"folderId": folderID},
		options.Find().SetProjection(bson.M{"sound": 0}),
	)
	if err != nil {
		return nil, err
	}
	var found []CustomSound
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// GetCustomSound returns one sample including its payload.
func (s *Service) GetCustomSound(ctx context.Context, soundID bson.ObjectID) (CustomSound, error) {
	var record CustomSound
	err := s.custom.FindOne(ctx, bson.M{"_id": soundID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return CustomSound{}, ErrNotFound
	}
	if err != nil {
		return CustomSound{}, err
	}
	return record, nil
}

// DeleteCustomSound removes one sample.
func (s *Service) DeleteCustomSound(ctx context.Context, soundID bson.ObjectID) error {
	result, err := s.custom.DeleteOne(ctx, bson.M{"_id": soundID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertModel records or replaces the group's classifier model pointer.
func (s *Service) UpsertModel(ctx context.Context, groupID bson.ObjectID, modelName, modelPath string) (ClassifierModel, error) {
	if strings.TrimSpace(modelName) == "" {
		return ClassifierModel{}, fmt.Errorf("%w: model name is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	update := bson.M{
		"$set": bson.M{
			"modelName": modelName,
			"modelPath": modelPath,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"groupId": groupID, "createdAt": now},
	}
	_, err := s.models.UpdateOne(ctx, bson.M{"groupId": groupID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return ClassifierModel{}, err
	}
	return s.ModelForGroup(ctx, groupID)
}

// ModelForGroup returns the group's classifier model record.
func (s *Service) ModelForGroup(ctx context.Context, groupID bson.ObjectID) (ClassifierModel, error) {
	var record ClassifierModel
	err := s.models.FindOne(ctx, bson.M{"groupId": groupID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ClassifierModel{}, ErrNotFound
	}
	if err != nil {
		return ClassifierModel{}, err
	}
	return record, nil
}
