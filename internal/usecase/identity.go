package usecase

import "github.com/google/uuid"

// AssignInstanceID keeps an existing id and mints one otherwise.
func AssignInstanceID(existing string) string {
	if existing != "" {
		return existing
	}
	return uuid.NewString()
}
