package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mayyinandprojects/Movie-API/internal/domain"
	"github.com/mayyinandprojects/Movie-API/pkg/database"
)

// MovieRepository implements repository.MovieRepository using MongoDB.
type MovieRepository struct {
	coll *mongo.Collection
}

// NewMovieRepository creates a new MongoDB-backed movie repository.
func NewMovieRepository(db *mongo.Database) *MovieRepository {
	return &MovieRepository{coll: db.Collection(MoviesCollection)}
}

// EnsureIndexes creates lookup indexes on title, genre and director name.
func (r *MovieRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "genre.name", Value: 1}}},
		{Keys: bson.D{{Key: "director.name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create movie indexes: %w", err)
	}
	return nil
}

// List returns every movie ordered by title.
func (r *MovieRepository) List(ctx context.Context) (movies []domain.Movie, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "ListMovies", "movies.find")
	defer func() { end(err) }()

	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	var docs []movieDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}

	movies = make([]domain.Movie, 0, len(docs))
	for _, d := range docs {
		movies = append(movies, d.toDomain())
	}
	return movies, nil
}

// GetByTitle retrieves a movie by its exact title.
func (r *MovieRepository) GetByTitle(ctx context.Context, title string) (*domain.Movie, error) {
	doc, err := r.findOne(ctx, "GetMovieByTitle", bson.D{{Key: "title", Value: title}}, nil)
	if err != nil {
		return nil, err
	}
	m := doc.toDomain()
	return &m, nil
}

// GetGenre returns the genre embedded in the first movie of that genre.
func (r *MovieRepository) GetGenre(ctx context.Context, name string) (*domain.Genre, error) {
	doc, err := r.findOne(ctx, "GetGenre", bson.D{{Key: "genre.name", Value: name}}, bson.D{{Key: "genre", Value: 1}})
	if err != nil {
		return nil, err
	}
	g := domain.Genre(doc.Genre)
	return &g, nil
}

// GetDirector returns the director embedded in the first movie they directed.
func (r *MovieRepository) GetDirector(ctx context.Context, name string) (*domain.Director, error) {
	doc, err := r.findOne(ctx, "GetDirector", bson.D{{Key: "director.name", Value: name}}, bson.D{{Key: "director", Value: 1}})
	if err != nil {
		return nil, err
	}
	d := domain.Director(doc.Director)
	return &d, nil
}

// Exists reports whether a movie with the given id exists.
func (r *MovieRepository) Exists(ctx context.Context, id string) (exists bool, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "MovieExists", "movies.countDocuments")
	defer func() { end(err) }()

	n, err := r.coll.CountDocuments(ctx, byID(id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count movies: %w", err)
	}
	return n > 0, nil
}

// Upsert replaces the document with m's id, inserting it when absent.
func (r *MovieRepository) Upsert(ctx context.Context, m *domain.Movie) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, "UpsertMovie", "movies.replaceOne")
	defer func() { end(err) }()

	_, err = r.coll.ReplaceOne(ctx, byID(m.ID), toMovieDocument(m), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}
	return nil
}

func (r *MovieRepository) findOne(ctx context.Context, op string, filter, projection bson.D) (doc *movieDocument, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemMongo, op, "movies.findOne")
	defer func() { end(err) }()

	opts := options.FindOne().SetSort(bson.D{{Key: "title", Value: 1}})
	if projection != nil {
		opts.SetProjection(projection)
	}

	var d movieDocument
	if err = r.coll.FindOne(ctx, filter, opts).Decode(&d); err != nil {
		return nil, mapFindError(err, "find movie")
	}
	return &d, nil
}
