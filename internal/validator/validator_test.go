package validator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCondKeepsFirstMessage(t *testing.T) {
	v := New()
	v.CheckCond(true, "name", "never recorded")
	assert.False(t, v.HasErrors())

	v.CheckCond(false, "name", "first")
	v.CheckCond(false, "name", "second")
	assert.True(t, v.HasErrors())
	assert.Equal(t, "first", v.Errors["name"])
}

func TestCheckEmail(t *testing.T) {
	for _, email := range []string{"test@example.com", "a.b+c@sub.example.org"} {
		v := New()
		v.CheckEmail(email)
		assert.False(t, v.HasErrors(), email)
	}

	v := New()
	v.CheckEmail("")
	assert.Equal(t, "must be provided", v.Errors["email"])

	v = New()
	v.CheckEmail("not-an-email")
	assert.Equal(t, "must be a valid email address", v.Errors["email"])
}

func TestCheckPassword(t *testing.T) {
	v := New()
	v.CheckPassword("short")
	assert.Equal(t, "must be at least 8 characters long", v.Errors["password"])

	v = New()
	v.CheckPassword(strings.Repeat("x", 73))
	assert.Equal(t, "must be at most 72 characters long", v.Errors["password"])

	v = New()
	v.CheckPassword("pa55word!")
	assert.False(t, v.HasErrors())
}

type sphereInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Minutes  int    `json:"estimated_time_minutes" validate:"gte=0"`
}

func TestCheckStruct(t *testing.T) {
	v := New()
	v.CheckStruct(sphereInput{Name: "Work", Color: "#FF6B6B", Priority: "HIGH", Minutes: 30})
	assert.False(t, v.HasErrors())

	v = New()
	v.CheckStruct(sphereInput{Color: "red", Priority: "URGENT", Minutes: -1})
	assert.Equal(t, map[string]string{
		"name":                   "must be provided",
		"color":                  "must be a hex color like #FF6B6B",
		"priority":               "must be one of LOW, MEDIUM, HIGH, CRITICAL",
		"estimated_time_minutes": "must be greater than or equal to 0",
	}, v.Errors)

	v = New()
	v.CheckStruct(sphereInput{Name: strings.Repeat("n", 101)})
	assert.Equal(t, "must be at most 100 characters long", v.Errors["name"])
}

func TestToError(t *testing.T) {
	v := New()
	v.CheckCond(false, "title", "must be provided")

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(v.ToError().Error()), &decoded))
	assert.Equal(t, map[string]string{"title": "must be provided"}, decoded)
}
