package validation

import (
	"regexp"
	"strings"

	"mentalmath/internal/domain"
	"mentalmath/internal/dto"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreateSessionRequest validates the session creation request.
// Existence of the slugs is checked against the catalog later; this only
// covers shape.
func (v *Validator) ValidateCreateSessionRequest(req *dto.CreateSessionRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if len(req.TopicOrder) == 0 {
		errors = append(errors, domain.NewMissingFieldError("topicOrder"))
		return errors
	}
	for _, slug := range req.TopicOrder {
		if !isValidSlug(slug) {
			errors = append(errors, domain.NewInvalidFormatError("topicOrder", slug))
		}
	}

	return errors
}

// ValidateAnswerRequest validates the answer submission request.
func (v *Validator) ValidateAnswerRequest(req *dto.AnswerCurrentQuestionRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.SessionID) == "" {
		errors = append(errors, domain.NewMissingFieldError("sessionId"))
	} else if !isValidULID(req.SessionID) {
		errors = append(errors, domain.NewInvalidFormatError("sessionId", req.SessionID))
	}

	if req.Response == "" {
		errors = append(errors, domain.NewMissingFieldError("response"))
	} else if len(req.Response) > 2000 {
		errors = append(errors, domain.NewOutOfRangeError("response", len(req.Response), 1, 2000))
	}

	if req.TimeTaken < 0 {
		errors = append(errors, domain.NewOutOfRangeError("timeTaken", req.TimeTaken, 0, 86400))
	}

	return errors
}

// ValidateRegisterRequest validates the registration request.
func (v *Validator) ValidateRegisterRequest(req *dto.RegisterRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.FullName) == "" {
		errors = append(errors, domain.NewMissingFieldError("fullName"))
	}
	if strings.TrimSpace(req.Email) == "" {
		errors = append(errors, domain.NewMissingFieldError("email"))
	} else if !isValidEmail(req.Email) {
		errors = append(errors, domain.NewInvalidFormatError("email", req.Email))
	}
	if req.Password == "" {
		errors = append(errors, domain.NewMissingFieldError("password"))
	} else if len(req.Password) < 8 || len(req.Password) > 72 {
		errors = append(errors, domain.NewOutOfRangeError("password", len(req.Password), 8, 72))
	}
	if req.Age < 0 || req.Age > 150 {
		errors = append(errors, domain.NewOutOfRangeError("age", req.Age, 0, 150))
	}

	return errors
}

// Helper functions for validation

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	// ULID is 26 characters long, base32 encoded
	if len(s) != 26 {
		return false
	}
	// Check if all characters are valid base32 (Crockford's Base32)
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}

// isValidSlug checks if a topic slug has a valid format
func isValidSlug(s string) bool {
	// Allow alphanumeric, hyphens, and underscores, 1-50 characters
	if len(s) == 0 || len(s) > 50 {
		return false
	}
	validSlug := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	return validSlug.MatchString(s)
}

// isValidEmail checks a minimal email shape; real verification happens
// out of band.
func isValidEmail(s string) bool {
	validEmail := regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	return validEmail.MatchString(s)
}
