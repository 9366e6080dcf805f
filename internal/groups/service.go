package groups

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jeecoo/vibro-backend/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const groupAvatarURLTemplate = "https://api.dicebear.com/9.x/bottts/svg?seed=%s"

var (
	// ErrInvalidInput indicates a group field failed validation.
	ErrInvalidInput = errors.New("groups: invalid input")
	// ErrNotFound indicates the group does not exist.
	ErrNotFound = errors.New("groups: not found")
	// ErrNotAuthorized indicates the acting user lacks the admin flag.
	ErrNotAuthorized = errors.New("groups: not authorized")
	// ErrAlreadyMember indicates the user already has a membership document.
	ErrAlreadyMember = errors.New("groups: already a member")
	// ErrNotMember indicates the user has no membership document.
	ErrNotMember = errors.New("groups: not a member")
)

// ServiceConfig describes the dependencies required for group management.
type ServiceConfig struct {
	Database *mongo.Database
	Clock    func() time.Time
}

// Service manages group documents and the membership join collection.
// Membership reads always hit the store; nothing here is cached, so admin or
// membership revocation takes effect on the next request.
type Service struct {
	groups      *mongo.Collection
	memberships *mongo.Collection
	now         func() time.Time
}

// NewService constructs the group service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("groups: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		groups:      cfg.Database.Collection(database.CollectionGroups),
		memberships: cfg.Database.Collection(database.CollectionGroupUsers),
		now:         clock,
	}, nil
}

// Create inserts the group and grants the creator an admin membership.
func (s *Service) Create(ctx context.Context, creatorID bson.ObjectID, name, photo string) (Group, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return Group{}, fmt.Errorf("%w: group name must be at least 3 characters", ErrInvalidInput)
	}
	if photo == "" {
		photo = fmt.Sprintf(groupAvatarURLTemplate, url.QueryEscape(name))
	}

	now := s.now().UTC()
	group := Group{
		GroupName:  name,
		GroupPhoto: photo,
		IsActive:   true,
		CreatedBy:  creatorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	result, err := s.groups.InsertOne(ctx, group)
	if err != nil {
		return Group{}, err
	}
	group.ID = result.InsertedID.(bson.ObjectID)

	membership := Membership{
		UserID:    creatorID,
		GroupID:   group.ID,
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.memberships.InsertOne(ctx, membership); err != nil {
		return Group{}, fmt.Errorf("create admin membership: %w", err)
	}

	return group, nil
}

// Get returns a single group by id.
func (s *Service) Get(ctx context.Context, groupID bson.ObjectID) (Group, error) {
	var group Group
	err := s.groups.FindOne(ctx, bson.M{"_id": groupID}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, err
	}
	return group, nil
}

// GroupsFor returns the active groups the user belongs to, newest first.
func (s *Service) GroupsFor(ctx context.Context, userID bson.ObjectID) ([]Group, error) {
	memberships, err := s.membershipsFor(ctx, bson.M{"userid": userID})
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []Group{}, nil
	}

	groupIDs := make([]bson.ObjectID, 0, len(memberships))
	for _, membership := range memberships {
		groupIDs = append(groupIDs, membership.GroupID)
	}

	cursor, err := s.groups.Find(ctx,
		bson.M{"_id": bson.M{"$in": groupIDs}, "isActive": true},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var found []Group
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// Update applies the provided field changes; only admins may update.
func (s *Service) Update(ctx context.Context, groupID, actorID bson.ObjectID, name, photo *string, isActive *bool) (Group, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return Group{}, err
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return Group{}, err
	}

	changes := bson.M{"updatedAt": s.now().UTC()}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if len(trimmed) < 3 {
			return Group{}, fmt.Errorf("%w: group name must be at least 3 characters", ErrInvalidInput)
		}
		changes["groupName"] = trimmed
	}
	if photo != nil {
		changes["groupPhoto"] = *photo
	}
	if isActive != nil {
		changes["isActive"] = *isActive
	}

	if _, err := s.groups.UpdateOne(ctx, bson.M{"_id": groupID}, bson.M{"$set": changes}); err != nil {
		return Group{}, err
	}
	return s.Get(ctx, groupID)
}

// Delete removes the group and all of its memberships; only admins may delete.
func (s *Service) Delete(ctx context.Context, groupID, actorID bson.ObjectID) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}

	if _, err := s.groups.DeleteOne(ctx, bson.M{"_id": groupID}); err != nil {
		return err
	}
	_, err := s.memberships.DeleteMany(ctx, bson.M{"groupid": groupID})
	return err
}

// Memberships returns every membership document for the group.
func (s *Service) Memberships(ctx context.Context, groupID bson.ObjectID) ([]Membership, error) {
	return s.membershipsFor(ctx, bson.M{"groupid": groupID})
}

// MemberIDs returns the user ids of every member of the group.
func (s *Service) MemberIDs(ctx context.Context, groupID bson.ObjectID) ([]bson.ObjectID, error) {
	memberships, err := s.membershipsFor(ctx, bson.M{"groupid": groupID})
	if err != nil {
		return nil, err
	}
	ids := make([]bson.ObjectID, 0, len(memberships))
	for _, membership := range memberships {
		ids = append(ids, membership.UserID)
	}
	return ids, nil
}

// IsMember reports whether the user has a membership document for the group.
func (s *Service) IsMember(ctx context.Context, groupID, userID bson.ObjectID) (bool, error) {
	count, err := s.memberships.CountDocuments(ctx, bson.M{"groupid": groupID, "userid": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddMember inserts a membership for the target user; only admins may add.
func (s *Service) AddMember(ctx context.Context, groupID, actorID, targetID bson.ObjectID) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}
	return s.insertMembership(ctx, groupID, targetID, false)
}

// Join inserts a non-admin membership for the acting user.
func (s *Service) Join(ctx context.Context, groupID, userID bson.ObjectID) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	return s.insertMembership(ctx, groupID, userID, false)
}

// RemoveMember deletes a membership. Admins may remove anyone; a member may
// remove themselves. A group left with no members is deactivated.
func (s *Service) RemoveMember(ctx context.Context, groupID, actorID, memberID bson.ObjectID) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}

	if actorID != memberID {
		if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
			return err
		}
	}

	result, err := s.memberships.DeleteOne(ctx, bson.M{"groupid": groupID, "userid": memberID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotMember
	}

	remaining, err := s.memberships.CountDocuments(ctx, bson.M{"groupid": groupID})
	if err != nil {
		return err
	}
	if remaining == 0 {
		_, err = s.groups.UpdateOne(ctx, bson.M{"_id": groupID},
			bson.M{"$set": bson.M{"isActive": false, "updatedAt": s.now().UTC()}})
	}
	return err
}

// SetMonitoring flips the per-group sound-monitoring preference for the member.
func (s *Service) SetMonitoring(ctx context.Context, groupID, userID bson.ObjectID, enabled bool) error {
	result, err := s.memberships.UpdateOne(ctx,
		bson.M{"groupid": groupID, "userid": userID},
		bson.M{"$set": bson.M{"isMonitoringOn": enabled, "updatedAt": s.now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *Service) insertMembership(ctx context.Context, groupID, userID bson.ObjectID, isAdmin bool) error {
	exists, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyMember
	}

	now := s.now().UTC()
	membership := Membership{
		UserID:    userID,
		GroupID:   groupID,
		IsAdmin:   isAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.memberships.InsertOne(ctx, membership); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID bson.ObjectID) error {
	count, err := s.memberships.CountDocuments(ctx, bson.M{"groupid": groupID, "userid": userID, "isAdmin": true})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotAuthorized
	}
	return nil
}

func (s *Service) membershipsFor(ctx context.Context, filter bson.M) ([]Membership, error) {
	cursor, err := s.memberships.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var found []Membership
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}
