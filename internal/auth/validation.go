package auth

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/elskow/gatehouse/internal/config"
)

const (
	maxUsernameLength = 64
	// bcrypt rejects longer passwords.
	maxPasswordBytes = 72
)

const errCredentialsRequired = "Username and password required"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r credentialsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required.Error(errCredentialsRequired),
			validation.RuneLength(1, maxUsernameLength),
		),
		validation.Field(&r.Password,
			validation.Required.Error(errCredentialsRequired),
			validation.By(maxBytes(maxPasswordBytes)),
		),
	)
}

type expiryRequest struct {
	Days json.RawMessage `json:"days"`
}

// ParseDays returns the requested period, which must be a JSON integer
// between one and config.MaxExpiryDays. Strings, fractions and null are
// rejected.
func (r expiryRequest) ParseDays() (int, error) {
	var days int
	if len(r.Days) == 0 || json.Unmarshal(r.Days, &days) != nil {
		return 0, ErrInvalidExpiryDays
	}
	if err := validation.Validate(days, validation.Required, validation.Min(1), validation.Max(config.MaxExpiryDays)); err != nil {
		return 0, ErrInvalidExpiryDays
	}
	return days, nil
}

func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return errors.New("the length must be no more than " + strconv.Itoa(n) + " bytes")
		}
		return nil
	}
}

// validationMessage flattens ozzo's per-field errors to one message, picking
// fields in name order so the result is stable.
func validationMessage(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if errs[field] != nil {
			return errs[field].Error()
		}
	}
	return err.Error()
}

func validateCredentials(req credentialsRequest) error {
	if err := req.Validate(); err != nil {
		return ValidationError(validationMessage(err))
	}
	return nil
}
