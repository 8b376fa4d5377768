package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"polli-ahaar/internal/models"
)

// UserQuery holds the filters of the admin user listing.
type UserQuery struct {
	Search string
	Role   string
	Page   Page
}

func (q UserQuery) Filter() bson.M {
	filter := bson.M{}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.Search != "" {
		rx := containsFold(q.Search)
		filter["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"email": rx},
		}
	}
	return filter
}

type UserRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewUserRepository(collection *mongo.Collection) *UserRepository {
	return &UserRepository{
		collection: collection,
		now:        time.Now,
	}
}

// CreateIfAbsent inserts user with the default role unless a user with the
// same email exists. It returns the new id, or nil when the user existed.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, user *models.User) (*primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user.ID = primitive.NilObjectID
	user.Role = models.RoleUser
	user.TimeStamp = r.now().UnixMilli()

	raw, err := bson.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"email": user.Email},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}
	id, ok := result.UpsertedID.(primitive.ObjectID)
	if !ok {
		return nil, nil
	}
	user.ID = id
	return &id, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Role reads the stored role for email. Unknown users have no role.
func (r *UserRepository) Role(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc struct {
		Role string `bson:"role"`
	}
	opts := options.FindOne().SetProjection(bson.M{"role": 1})
	err := r.collection.FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", err
	}
	return doc.Role, nil
}

// List returns one page of users, newest first.
func (r *UserRepository) List(ctx context.Context, q UserQuery) ([]models.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := q.Filter()
	var (
		total int64
		users = make([]models.User, 0)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.collection.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		opts := options.Find().
			SetProjection(bson.M{"password": 0}).
			SetSort(bson.D{{Key: "_id", Value: -1}}).
			SetSkip(q.Page.Skip()).
			SetLimit(int64(q.Page.Limit))
		cursor, err := r.collection.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("find users: %w", err)
		}
		defer cursor.Close(gctx)
		return cursor.All(gctx, &users)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateProfile overwrites the user-editable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, profile models.Profile) (*WriteResult, error) {
	return r.set(ctx, id, bson.M{
		"name":    profile.Name,
		"image":   profile.Image,
		"address": profile.Address,
		"phone":   profile.Phone,
	})
}

// UpdateRole assigns role to the user with id.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role string) (*WriteResult, error) {
	return r.set(ctx, id, bson.M{"role": role})
}

func (r *UserRepository) set(ctx context.Context, id string, set bson.M) (*WriteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return &WriteResult{MatchedCount: result.MatchedCount, ModifiedCount: result.ModifiedCount}, nil
}
