package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"required,email"`
	Site  string `json:"site" validate:"omitempty,url"`
}

func TestCheckOrdersViolationsByField(t *testing.T) {
	r := Check(form{Email: "nope", Site: "not a url"})
	require.False(t, r.OK())
	require.Len(t, r.Violations, 3)

	assert.Equal(t, FieldViolation{Field: "name", Rule: "required", Message: "name is required"}, *r.First())
	assert.Equal(t, "invalid email", r.Violations[1].Message)
	assert.Equal(t, "invalid URL", r.Violations[2].Message)
}

func TestCheckCountsRunes(t *testing.T) {
	assert.True(t, Check(form{Name: "ação!", Email: "a@b.co"}).OK())
	assert.False(t, Check(form{Name: "açãooo", Email: "a@b.co"}).OK())
}

func TestStructError(t *testing.T) {
	err := Struct(form{Name: "toolong", Email: "a@b.co"})
	require.Error(t, err)
	assert.Equal(t, "name must be at most 5 characters", err.Error())

	ve, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "max", ve.Violations[0].Rule)

	_, ok = AsError(errors.New("other"))
	assert.False(t, ok)

	assert.NoError(t, Struct(form{Name: "ok", Email: "a@b.co", Site: "https://example.com"}))
}
