package model

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNewArticle_Defaults(t *testing.T) {
	before := time.Now().UTC()
	a := NewArticle("Title", "Body", CategoryNews)

	assert.True(t, a.ID.IsZero(), "ID is assigned by the store")
	assert.False(t, a.Published)
	assert.Nil(t, a.ImageURL)
	assert.False(t, a.CreatedAt.Before(before))
	assert.NoError(t, a.Validate())
}

func TestArticle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		article Article
		field   string
	}{
		{"missing title", NewArticle("", "Body", CategoryBlog), "title"},
		{"missing content", NewArticle("Title", "", CategoryBlog), "content"},
		{"missing category", NewArticle("Title", "Body", ""), "category"},
		{"unknown category", NewArticle("Title", "Body", "opinion"), "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.article.Validate()
			require.Error(t, err)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}

func TestPatch_Fields(t *testing.T) {
	title := "New title"
	published := true
	p := Patch{Title: &title, Published: &published}

	assert.False(t, p.Empty())
	assert.Equal(t, bson.M{"title": "New title", "published": true}, p.Fields())
	assert.NoError(t, p.Validate())
}

func TestPatch_Empty(t *testing.T) {
	p := Patch{}
	assert.True(t, p.Empty())
	assert.Empty(t, p.Fields())
}

func TestPatch_RejectsBadValues(t *testing.T) {
	empty := ""
	assert.Error(t, (&Patch{Title: &empty}).Validate())

	cat := Category("opinion")
	assert.Error(t, (&Patch{Category: &cat}).Validate())
}
