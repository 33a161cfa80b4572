package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trendystore/authserver/types"
)

func TestValidateUserInput(t *testing.T) {
	tests := []struct {
		name    string
		in      types.UserInput
		wantErr string
	}{
		{"empty payload", types.UserInput{}, ""},
		{"valid", types.UserInput{Username: "john_doe-1", Email: "john@example.com", Phone: "+375 (29) 123-45-67", FirstName: "John", LastName: "Doe"}, ""},
		{"username charset", types.UserInput{Username: "john doe"}, `"username" can only contain letters (A-Z, a-z), numbers (0-9), hyphens (-), and underscores (_)!`},
		{"username short", types.UserInput{Username: "j"}, `"username" should have a minimum length of 2`},
		{"username long", types.UserInput{Username: strings.Repeat("a", 101)}, `"username" should have a maximum length of 100`},
		{"email", types.UserInput{Email: "not-an-email"}, `"email" must be a valid email address!`},
		{"phone operator", types.UserInput{Phone: "+375 17 123-45-67"}, `"phone" must be a valid Belarusian phone number!`},
		{"phone mixed separators", types.UserInput{Phone: "+375 29 123-45 67"}, `"phone" must be a valid Belarusian phone number!`},
		{"phone compact", types.UserInput{Phone: "+375291234567"}, ""},
		{"phone spaced", types.UserInput{Phone: "+375 44 123 45 67"}, ""},
		{"first name short", types.UserInput{FirstName: "J"}, `"firstName" should have a minimum length of 2`},
		{"last name long", types.UserInput{LastName: strings.Repeat("x", 101)}, `"lastName" should have a maximum length of 100`},
		{"username reported before email", types.UserInput{Username: "j", Email: "bad"}, `"username" should have a minimum length of 2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUserInput(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Equal(t, tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidateRoleInput(t *testing.T) {
	assert.NoError(t, validateRoleInput(types.RoleInput{Name: "editor"}))
	assert.EqualError(t, validateRoleInput(types.RoleInput{}), `"name" is a required field`)
	assert.EqualError(t, validateRoleInput(types.RoleInput{Name: strings.Repeat("r", 101)}), `"name" should have a maximum length of 100`)
}
