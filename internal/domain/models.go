package domain

// Pokemon represents a catalogued entity
type Pokemon struct {
	ID   string // Store-assigned identity token
	No   int64  // Caller-assigned catalogue number, unique
	Name string // Lowercase name, unique
}

// CreatePokemon is the payload for creating a Pokemon
type CreatePokemon struct {
	No   int64  `json:"no" yaml:"no"`
	Name string `json:"name" yaml:"name"`
}

// PokemonPatch carries a partial update; nil fields are left untouched
type PokemonPatch struct {
	No   *int64  `json:"no,omitempty"`
	Name *string `json:"name,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p PokemonPatch) Empty() bool {
	return p.No == nil && p.Name == nil
}

// Apply returns a copy of pokemon with the patch applied
func (p PokemonPatch) Apply(pokemon Pokemon) Pokemon {
	if p.No != nil {
		pokemon.No = *p.No
	}
	if p.Name != nil {
		pokemon.Name = *p.Name
	}
	return pokemon
}

// Page selects a window of the catalogue ordered by No
type Page struct {
	Limit  int
	Offset int
}

// Removal confirms a delete
type Removal struct {
	ID string
}

// SeedResult summarises a seed run
type SeedResult struct {
	Deleted int64 // Entities removed by a reset
	Created int   // Entities inserted
	Skipped int   // Entries rejected as duplicates
}
