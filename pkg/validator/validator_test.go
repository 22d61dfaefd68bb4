package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type categoryForm struct {
	Name        string `validate:"required"`
	Description string `validate:"required"`
	Image       string `validate:"required,url"`
	Color       string `validate:"required"`
}

func TestValidate_Success(t *testing.T) {
	f := categoryForm{
		Name:        "Outerwear",
		Description: "Coats and jackets",
		Image:       "https://cdn.example.com/outerwear.jpg",
		Color:       "#1a1a2e",
	}
	assert.NoError(t, Validate(f))
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(categoryForm{Name: "Outerwear"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Description"])
	assert.Contains(t, fields, "Image")
	assert.Contains(t, fields, "Color")
	assert.NotContains(t, fields, "Name")
}

func TestValidate_InvalidURL(t *testing.T) {
	err := Validate(categoryForm{
		Name:        "Outerwear",
		Description: "Coats",
		Image:       "not a url",
		Color:       "#fff",
	})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid URL", valErr.Fields()["Image"])
}

func TestValidationError_MessageListsEveryField(t *testing.T) {
	err := Validate(categoryForm{})
	require.Error(t, err)
	msg := err.Error()
	for _, field := range []string{"Name", "Description", "Image", "Color"} {
		assert.Contains(t, msg, field)
	}
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest("PUT", "/categories/c1",
		strings.NewReader(`{"Name":"Outerwear","Description":"Coats","Image":"https://x.example/a.jpg","Color":"#fff"}`))

	var f categoryForm
	assert.NoError(t, DecodeAndValidate(req, &f))
	assert.Equal(t, "Outerwear", f.Name)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	req := httptest.NewRequest("PUT", "/categories/c1", strings.NewReader("{not json"))

	var f categoryForm
	err := DecodeAndValidate(req, &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_ValidJSONInvalidFields(t *testing.T) {
	req := httptest.NewRequest("PUT", "/categories/c1", strings.NewReader(`{"Name":"Outerwear"}`))

	var f categoryForm
	err := DecodeAndValidate(req, &f)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
