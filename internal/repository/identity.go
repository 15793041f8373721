package repository

import "github.com/google/uuid"

// newID returns a fresh identity token
func newID() string {
	return uuid.New().String()
}

// isValidID accepts only the canonical 36-character UUID form
func isValidID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
