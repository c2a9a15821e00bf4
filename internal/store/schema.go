package store

import (
	"context"
	"errors"

	"inkwell/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// articleSchema is the collection validator. It applies to $set patches
// as well as inserts.
func articleSchema() bson.M {
	categories := bson.A{}
	for _, c := range model.Categories {
		categories = append(categories, string(c))
	}

	nonEmpty := bson.M{"bsonType": "string", "minLength": 1}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "content", "category", "published", "createdAt"},
			"properties": bson.M{
				"title":     nonEmpty,
				"content":   nonEmpty,
				"category":  bson.M{"enum": categories},
				"published": bson.M{"bsonType": "bool"},
				"image_url": bson.M{"bsonType": bson.A{"string", "null"}},
				"createdAt": bson.M{"bsonType": "date"},
			},
		},
	}
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	validator := articleSchema()

	err := db.CreateCollection(ctx, name, options.CreateCollection().SetValidator(validator))
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
		return db.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}).Err()
	}
	return err
}

func articleIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("category_createdAt"),
		},
	}
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, articleIndexes())
	return err
}
