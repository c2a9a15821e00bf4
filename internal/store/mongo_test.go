package store

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

func newMockStore(mt *mtest.T) *MongoStore {
	return &MongoStore{
		logger: zap.NewNop(),
		coll:   mt.Coll,
	}
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func articleDoc(id primitive.ObjectID, title string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "content", Value: "Body"},
		{Key: "category", Value: "blog"},
		{Key: "published", Value: true},
		{Key: "image_url", Value: nil},
		{Key: "createdAt", Value: created},
	}
}

func TestMongoStore_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id and timestamp", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		article := model.Article{Title: "A", Content: "B", Category: model.CategoryBlog}
		err := st.Create(context.Background(), &article)
		require.NoError(mt, err)

		assert.False(mt, article.ID.IsZero())
		assert.WithinDuration(mt, time.Now(), article.CreatedAt, time.Minute)
	})

	mt.Run("rejects unknown category before writing", func(mt *mtest.T) {
		st := newMockStore(mt)

		article := model.NewArticle("A", "B", "opinion")
		err := st.Create(context.Background(), &article)

		var verr *ValidationError
		require.ErrorAs(mt, err, &verr)
		assert.True(mt, article.ID.IsZero(), "nothing should have been stored")
	})

	mt.Run("maps schema violations to validation errors", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    codeDocumentValidation,
			Message: "Document failed validation",
		}))

		article := model.NewArticle("A", "B", model.CategoryNews)
		err := st.Create(context.Background(), &article)

		var verr *ValidationError
		assert.ErrorAs(mt, err, &verr)
	})
}

func TestMongoStore_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns documents in store order", func(mt *mtest.T) {
		st := newMockStore(mt)
		now := time.Now().UTC().Truncate(time.Millisecond)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			articleDoc(second, "newer", now),
			articleDoc(first, "older", now.Add(-time.Hour)),
		))

		q := ListQuery{Page: 1, PerPage: 2, Category: model.CategoryBlog}
		articles, err := st.List(context.Background(), q)
		require.NoError(mt, err)
		require.Len(mt, articles, 2)
		assert.Equal(mt, second, articles[0].ID)
		assert.Equal(mt, "older", articles[1].Title)
		assert.Nil(mt, articles[0].ImageURL)
	})

	mt.Run("past the end is an empty slice", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		articles, err := st.List(context.Background(), ListQuery{Page: 2, PerPage: 10})
		require.NoError(mt, err)
		assert.NotNil(mt, articles)
		assert.Empty(mt, articles)
	})
}

func TestMongoStore_Get(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		st := newMockStore(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			articleDoc(id, "Hello", time.Now())))

		article, err := st.Get(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, "Hello", article.Title)
		assert.True(mt, article.Published)
	})

	mt.Run("not found", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := st.Get(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		st := newMockStore(mt)

		_, err := st.Get(context.Background(), "not-an-id")
		assert.ErrorIs(mt, err, ErrInvalidID)
	})
}

func TestMongoStore_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	title := "X"

	mt.Run("returns the updated document", func(mt *mtest.T) {
		st := newMockStore(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: articleDoc(id, "X", time.Now())},
		))

		article, err := st.Update(context.Background(), id.Hex(), model.Patch{Title: &title})
		require.NoError(mt, err)
		assert.Equal(mt, "X", article.Title)
		assert.Equal(mt, "Body", article.Content)
	})

	mt.Run("missing document", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := st.Update(context.Background(), primitive.NewObjectID().Hex(), model.Patch{Title: &title})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("schema violation", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    codeDocumentValidation,
			Name:    "DocumentValidationFailure",
			Message: "Document failed validation",
		}))

		_, err := st.Update(context.Background(), primitive.NewObjectID().Hex(), model.Patch{Title: &title})
		var verr *ValidationError
		assert.ErrorAs(mt, err, &verr)
	})

	mt.Run("invalid patch never reaches the store", func(mt *mtest.T) {
		st := newMockStore(mt)
		cat := model.Category("opinion")

		_, err := st.Update(context.Background(), primitive.NewObjectID().Hex(), model.Patch{Category: &cat})
		var verr *ValidationError
		assert.ErrorAs(mt, err, &verr)
	})

	mt.Run("empty patch reads the current document", func(mt *mtest.T) {
		st := newMockStore(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			articleDoc(id, "Unchanged", time.Now())))

		article, err := st.Update(context.Background(), id.Hex(), model.Patch{})
		require.NoError(mt, err)
		assert.Equal(mt, "Unchanged", article.Title)
	})
}

func TestMongoStore_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("existing", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, st.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("already absent", func(mt *mtest.T) {
		st := newMockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.NoError(mt, st.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		st := newMockStore(mt)
		assert.ErrorIs(mt, st.Delete(context.Background(), "123"), ErrInvalidID)
	})
}

func TestMongoStore_ConnectIsIdempotent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("already connected", func(mt *mtest.T) {
		st := newMockStore(mt)
		// No URI is set, so a second dial would fail.
		assert.NoError(mt, st.Connect(context.Background()))
	})
}

func TestMongoStore_NotConnected(t *testing.T) {
	st := NewMongoStore(MongoOptions{Database: "test"}, zap.NewNop())
	ctx := context.Background()
	id := primitive.NewObjectID().Hex()

	_, err := st.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = st.List(ctx, ListQuery{Page: 1, PerPage: 10})
	assert.ErrorIs(t, err, ErrNotConnected)

	article := model.NewArticle("A", "B", model.CategoryBlog)
	assert.ErrorIs(t, st.Create(ctx, &article), ErrNotConnected)
	assert.ErrorIs(t, st.Delete(ctx, id), ErrNotConnected)
	assert.NoError(t, st.Close(ctx))
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates both indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, ensureIndexes(context.Background(), mt.Coll))
	})
}

func TestArticleSchema_CategoryEnum(t *testing.T) {
	schema := articleSchema()["$jsonSchema"].(bson.M)
	props := schema["properties"].(bson.M)
	category := props["category"].(bson.M)

	assert.Equal(t, bson.A{"blog", "news"}, category["enum"])
	assert.Contains(t, schema["required"], "category")
}
