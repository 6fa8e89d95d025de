package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string `json:"name" validate:"required"`
	Content string `json:"content" validate:"notblank"`
	Ignored string `json:"-"`
	Plain   string `validate:"required"`
}

func TestErrorsUseJSONNames(t *testing.T) {
	err := Struct(sample{Content: "   "})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	assert.Equal(t, []string{"name", "content", "Plain"}, fields)
}

func TestValidStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "a", Content: "b", Plain: "c"}))
}
