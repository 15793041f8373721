package service

import (
	"strings"
	"unicode/utf8"

	"github.com/jbweber/homelab/pokedex/internal/domain"
)

const (
	minNo      = 1
	minNameLen = 2
)

// ValidateCreate checks a create payload before it reaches the store
func ValidateCreate(in domain.CreatePokemon) error {
	if err := validateNo(in.No); err != nil {
		return err
	}
	return validateName(in.Name)
}

// ValidatePatch checks only the fields a patch sets
func ValidatePatch(patch domain.PokemonPatch) error {
	if patch.No != nil {
		if err := validateNo(*patch.No); err != nil {
			return err
		}
	}
	if patch.Name != nil {
		return validateName(*patch.Name)
	}
	return nil
}

func validateNo(no int64) error {
	if no < minNo {
		return &ValidationError{Field: "no", Reason: "must be a positive integer"}
	}
	return nil
}

func validateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLen {
		return &ValidationError{Field: "name", Reason: "must be at least 2 characters long"}
	}
	return nil
}

// normalizeName is the stored form of a name
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
