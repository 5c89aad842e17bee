package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupDTO struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(signupDTO{
		Name:            "Laura Wilson",
		Email:           "laura@example.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})
	assert.NoError(t, err)
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	err := Validate(signupDTO{
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
	})
	require.Error(t, err)

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := valErr.Fields()
	assert.Equal(t, "name is required", fields["name"])
	assert.Equal(t, "email must be a valid email address", fields["email"])
	assert.Equal(t, "password must be at least 8 characters", fields["password"])
	assert.Contains(t, fields["passwordConfirm"], "must match")
}

func TestViolations_EmptyIsNil(t *testing.T) {
	var v Violations
	v.Check(true, "price", "never recorded")
	assert.NoError(t, v.Err())
}

func TestViolations_CollectsInOrder(t *testing.T) {
	var v Violations
	v.Check(false, "name", "A tour must have a name")
	v.Check(false, "price", "A tour must have a price")
	v.Add("name", "second name message")

	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "Invalid input data. A tour must have a name. A tour must have a price. second name message", err.Error())

	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Len(t, valErr.Violations, 3)
	assert.Equal(t, "A tour must have a name", valErr.Fields()["name"])
}

func TestViolations_Email(t *testing.T) {
	var v Violations
	v.Email("jonas@example.io", "email", "Please provide a valid email")
	assert.NoError(t, v.Err())

	v.Email("jonas", "email", "Please provide a valid email")
	assert.Error(t, v.Err())
}
