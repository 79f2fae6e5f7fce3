package lookup

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"muni-form-assist/domain"
	"strings"
)

// ErrInvalidPerson returned when a new person fails validation
var ErrInvalidPerson = errors.New("invalid person")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// DNI has 7 or 8 digits, CUIL 11; 9 shows up in old records
	_ = v.RegisterValidation("dnilen", func(fl validator.FieldLevel) bool {
		switch len(fl.Field().String()) {
		case 7, 8, 9, 11:
			return true
		}
		return false
	})
	return v
}

// CleanPerson trims p, keeps only the digits of the DNI and validates the result
func CleanPerson(p domain.NewPerson) (domain.NewPerson, error) {
	p.DNI = DigitsOnly(p.DNI)
	p.Surname = strings.TrimSpace(p.Surname)
	p.Name = strings.TrimSpace(p.Name)
	p.Address = strings.TrimSpace(p.Address)
	p.Neighborhood = strings.TrimSpace(p.Neighborhood)
	p.Phone = strings.TrimSpace(p.Phone)

	if err := validate.Struct(p); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			fields := make([]string, 0, len(fieldErrors))
			for _, fe := range fieldErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return p, fmt.Errorf("%w: %s", ErrInvalidPerson, strings.Join(fields, ", "))
		}
		return p, fmt.Errorf("%w: %v", ErrInvalidPerson, err)
	}
	return p, nil
}

// DigitsOnly drops every non digit, as DNI and CUIL are stored
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
