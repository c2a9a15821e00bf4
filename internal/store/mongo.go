package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"inkwell/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	codeNamespaceExists    = 48
	codeDocumentValidation = 121
)

// MongoOptions locates the article collection.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// MongoStore keeps articles in a single MongoDB collection. The client is
// opened once by Connect and shared by every request.
type MongoStore struct {
	opts   MongoOptions
	logger *zap.Logger

	mu     sync.RWMutex
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoStore(opts MongoOptions, logger *zap.Logger) *MongoStore {
	if opts.Collection == "" {
		opts.Collection = "articles"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &MongoStore{
		opts:   opts,
		logger: logger.With(zap.String("component", "store")),
	}
}

// Connect dials MongoDB, then makes sure the collection validator and the
// indexes exist. Calling it again once connected does nothing.
func (s *MongoStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coll != nil {
		s.logger.Info("Already connected to MongoDB")
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(s.opts.URI).
		SetServerSelectionTimeout(s.opts.Timeout))
	if err != nil {
		return &ConnectionError{Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return &ConnectionError{Err: err}
	}

	db := client.Database(s.opts.Database)
	if err := ensureCollection(ctx, db, s.opts.Collection); err != nil {
		_ = client.Disconnect(context.Background())
		return &ConnectionError{Err: err}
	}

	coll := db.Collection(s.opts.Collection)
	if err := ensureIndexes(ctx, coll); err != nil {
		_ = client.Disconnect(context.Background())
		return &ConnectionError{Err: err}
	}

	s.client, s.coll = client, coll
	s.logger.Info("Connected to MongoDB",
		zap.String("database", s.opts.Database),
		zap.String("collection", s.opts.Collection))
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client, s.coll = nil, nil
	return err
}

func (s *MongoStore) collection() (*mongo.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.coll == nil {
		return nil, ErrNotConnected
	}
	return s.coll, nil
}

func (s *MongoStore) Create(ctx context.Context, article *model.Article) error {
	if err := article.Validate(); err != nil {
		return &ValidationError{Err: err}
	}

	coll, err := s.collection()
	if err != nil {
		return err
	}

	if article.ID.IsZero() {
		article.ID = primitive.NewObjectID()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	if _, err := coll.InsertOne(ctx, article); err != nil {
		if isValidationFailure(err) {
			return &ValidationError{Err: err}
		}
		return fmt.Errorf("add article: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, q ListQuery) ([]model.Article, error) {
	coll, err := s.collection()
	if err != nil {
		return nil, err
	}

	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.PerPage))

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	var articles []model.Article
	if err := cur.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}
	if articles == nil {
		articles = []model.Article{}
	}
	return articles, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*model.Article, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	coll, err := s.collection()
	if err != nil {
		return nil, err
	}

	var article model.Article
	err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&article)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetch article by id: %w", err)
	}
	return &article, nil
}

// Update applies patch and returns the article as it is after the write.
// An empty patch returns the stored article unchanged.
func (s *MongoStore) Update(ctx context.Context, id string, patch model.Patch) (*model.Article, error) {
	if err := patch.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if patch.Empty() {
		return s.Get(ctx, id)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	coll, err := s.collection()
	if err != nil {
		return nil, err
	}

	var article model.Article
	err = coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": patch.Fields()},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&article)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case isValidationFailure(err):
		return nil, &ValidationError{Err: err}
	case err != nil:
		return nil, fmt.Errorf("update article: %w", err)
	}
	return &article, nil
}

// Delete removes the article. A missing article is not an error.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	coll, err := s.collection()
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if res.DeletedCount == 0 {
		s.logger.Debug("Delete of missing article", zap.String("id", id))
	}
	return nil
}

func isValidationFailure(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(codeDocumentValidation)
}
