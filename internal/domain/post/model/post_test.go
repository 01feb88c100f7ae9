package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashtags(t *testing.T) {
	assert.Equal(t, []string{"#golang", "#café", "#golang"}, Hashtags("Learning #golang at the #café. More #golang!"))
	assert.Equal(t, []string{}, Hashtags("no tags here # just hash"))
	assert.Equal(t, []string{"#ação_2024"}, Hashtags("#ação_2024"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Hello world", Excerpt("Hello world #intro"))

	long := strings.Repeat("é", 200)
	got := Excerpt(long)
	assert.Equal(t, strings.Repeat("é", ExcerptLength)+"...", got)

	exact := strings.Repeat("a", ExcerptLength)
	assert.Equal(t, exact, Excerpt(exact))
}

func TestNewView(t *testing.T) {
	p := Post{Title: "T", Content: "Body #news"}
	v := NewView(p)
	assert.Equal(t, []string{"#news"}, v.Hashtags)
	assert.Equal(t, "Body", v.Excerpt)
	assert.Equal(t, "T", v.Title)
}
