package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"

	"github.com/trendystore/authserver/types"
)

const (
	usernameMinLength = 2
	usernameMaxLength = 100
	emailMinLength    = 2
	emailMaxLength    = 100
	phoneMinLength    = 2
	phoneMaxLength    = 50
	nameMinLength     = 2
	nameMaxLength     = 100

	belarusRegion      = "BY"
	belarusCountryCode = 375

	msgInvalidPhone = `"phone" must be a valid Belarusian phone number!`
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// +375, operator 25/29/33/44 optionally in parentheses, then seven
	// digits grouped 3-2-2 with one consistent separator or none.
	phonePattern = regexp.MustCompile(`^\+375\s?(\(25\)|\(29\)|\(33\)|\(44\)|25|29|33|44)\s?(\d{3}-\d{2}-\d{2}|\d{3} \d{2} \d{2}|\d{7})$`)
)

type fieldRules struct {
	value *string
	rules []validation.Rule
}

func lengthRules(field string, minLen, maxLen int) []validation.Rule {
	return []validation.Rule{
		validation.RuneLength(minLen, 0).Error(fmt.Sprintf("%q should have a minimum length of %d", field, minLen)),
		validation.RuneLength(0, maxLen).Error(fmt.Sprintf("%q should have a maximum length of %d", field, maxLen)),
	}
}

func belarusPhone(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, belarusRegion)
	if err != nil || num.GetCountryCode() != belarusCountryCode || !phonenumbers.IsPossibleNumber(num) {
		return errors.New(msgInvalidPhone)
	}
	return nil
}

// validateUserInput checks the supplied user fields in a fixed order and
// returns the first failure. Empty fields are not validated.
func validateUserInput(in types.UserInput) error {
	fields := []fieldRules{
		{&in.Username, append([]validation.Rule{
			validation.Match(usernamePattern).Error(`"username" can only contain letters (A-Z, a-z), numbers (0-9), hyphens (-), and underscores (_)!`),
		}, lengthRules("username", usernameMinLength, usernameMaxLength)...)},
		{&in.Email, append([]validation.Rule{
			validation.Match(emailPattern).Error(`"email" must be a valid email address!`),
		}, lengthRules("email", emailMinLength, emailMaxLength)...)},
		{&in.Phone, append([]validation.Rule{
			validation.Match(phonePattern).Error(msgInvalidPhone),
			validation.By(belarusPhone),
		}, lengthRules("phone", phoneMinLength, phoneMaxLength)...)},
		{&in.FirstName, lengthRules("firstName", nameMinLength, nameMaxLength)},
		{&in.LastName, lengthRules("lastName", nameMinLength, nameMaxLength)},
	}

	for _, f := range fields {
		if err := validation.Validate(*f.value, f.rules...); err != nil {
			return err
		}
	}
	return nil
}

func validateRoleInput(in types.RoleInput) error {
	rules := append([]validation.Rule{
		validation.Required.Error(`"name" is a required field`),
	}, lengthRules("name", nameMinLength, nameMaxLength)...)
	return validation.Validate(in.Name, rules...)
}

// validateUser rejects the decoded user payload with 400 on the first rule failure.
func validateUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := validateUserInput(userInputFromContext(r.Context())); err != nil {
			writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validateRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := validateRoleInput(roleInputFromContext(r.Context())); err != nil {
			writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
