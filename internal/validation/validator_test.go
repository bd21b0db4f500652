package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	v := NewValidator()

	type signup struct {
		Email    string `validate:"required,email"`
		FullName string `validate:"required,min=2,max=100"`
	}

	assert.NoError(t, v.Validate(signup{Email: "ann@example.com", FullName: "Ann"}))

	err := v.Validate(signup{Email: "not-an-email", FullName: "A"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Email: failed email validation")
	assert.Contains(t, err.Error(), "FullName: failed min validation")
}
