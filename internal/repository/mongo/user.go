package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/pkg/database"
	apperrors "github.com/mayyinandprojects/Movie-API/pkg/errors"
)

// DuplicateUsernameCode is the error code for a taken username.
const DuplicateUsernameCode = "DUPLICATE_USERNAME"

// UserRepository implements repository.UserRepository using MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection)}
}

// EnsureIndexes creates the unique username index if it does not exist.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create username index: %w", err)
	}
	return nil
}

// Create inserts a new user document.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "CreateUser", "users.insertOne")
	defer func() { end(err) }()

	if _, err = r.coll.InsertOne(ctx, toUserDocument(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Duplicate(DuplicateUsernameCode, u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "GetUserByID", byID(id))
}

// GetByUsername retrieves a user by their login name.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "GetUserByUsername", byUsername(username))
}

// List returns every user ordered by username.
func (r *UserRepository) List(ctx context.Context) (users []domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ListUsers", "users.find")
	defer func() { end(err) }()

	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var docs []userDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users = make([]domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, *d.toDomain())
	}
	return users, nil
}

// Update replaces the mutable fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "UpdateUser", "users.updateOne")
	defer func() { end(err) }()

	u.UpdatedAt = time.Now().UTC()

	res, err := r.coll.UpdateOne(ctx, byID(u.ID), updateUserFields(u))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Duplicate(DuplicateUsernameCode, u.Username)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user", u.ID)
	}
	return nil
}

// Delete removes a user document by ID.
func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "DeleteUser", "users.deleteOne")
	defer func() { end(err) }()

	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// AddFavorite adds movieID to the favorites set with $addToSet.
func (r *UserRepository) AddFavorite(ctx context.Context, userID, movieID string) (*domain.User, error) {
	return r.findOneAndUpdate(ctx, "AddFavorite", byID(userID), favoriteUpdate("$addToSet", movieID))
}

// RemoveFavorite drops movieID from the favorites set with $pull.
func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, movieID string) (*domain.User, error) {
	return r.findOneAndUpdate(ctx, "RemoveFavorite", byID(userID), favoriteUpdate("$pull", movieID))
}

func (r *UserRepository) findOne(ctx context.Context, op string, filter bson.D) (u *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, op, "users.findOne")
	defer func() { end(err) }()

	var doc userDocument
	if err = r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapFindError(err, "find user")
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) findOneAndUpdate(ctx context.Context, op string, filter, update bson.D) (u *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, op, "users.findOneAndUpdate")
	defer func() { end(err) }()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, mapFindError(err, "update favorites")
	}
	return doc.toDomain(), nil
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func byUsername(username string) bson.D {
	return bson.D{{Key: "username", Value: username}}
}

func updateUserFields(u *domain.User) bson.D {
	doc := toUserDocument(u)
	set := bson.D{
		{Key: "username", Value: doc.Username},
		{Key: "password_hash", Value: doc.PasswordHash},
		{Key: "email", Value: doc.Email},
		{Key: "name", Value: doc.Name},
		{Key: "updated_at", Value: doc.UpdatedAt},
	}
	update := bson.D{{Key: "$set", Value: set}}
	if doc.Birthday != nil {
		update[0].Value = append(set, bson.E{Key: "birthday", Value: *doc.Birthday})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "birthday", Value: ""}}})
	}
	return update
}

func favoriteUpdate(operator, movieID string) bson.D {
	return bson.D{
		{Key: operator, Value: bson.D{{Key: "favorite_movies", Value: movieID}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}
}

func mapFindError(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
