package model

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

type Category string

const (
	CategoryBlog Category = "blog"
	CategoryNews Category = "news"
)

// Categories lists every value the store accepts for Article.Category.
var Categories = []Category{CategoryBlog, CategoryNews}

// Article is a blog or news post.
type Article struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title" validate:"required"`
	Content   string             `json:"content" bson:"content" validate:"required"`
	Category  Category           `json:"category" bson:"category" validate:"required,oneof=blog news"`
	Published bool               `json:"published" bson:"published"`
	ImageURL  *string            `json:"image_url" bson:"image_url"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// NewArticle creates an unpublished Article stamped with the current time.
// The ID is left zero until the store assigns one.
func NewArticle(title, content string, category Category) Article {
	return Article{
		Title:     title,
		Content:   content,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the required fields and the category enum.
func (a *Article) Validate() error {
	return validate.Struct(a)
}

// Patch is the set of fields a client may change on an existing Article.
// ID, ImageURL and CreatedAt are not patchable.
type Patch struct {
	Title     *string   `json:"title" validate:"omitempty,min=1"`
	Content   *string   `json:"content" validate:"omitempty,min=1"`
	Category  *Category `json:"category" validate:"omitempty,oneof=blog news"`
	Published *bool     `json:"published"`
}

func (p *Patch) Validate() error {
	return validate.Struct(p)
}

// Empty reports whether the patch changes nothing.
func (p *Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Category == nil && p.Published == nil
}

// Fields returns the patch as a $set document, keyed by BSON field name.
func (p *Patch) Fields() bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Published != nil {
		set["published"] = *p.Published
	}
	return set
}
