package domain

import "time"

// DefaultGender is applied to submissions that omit a gender ("公" = male).
const DefaultGender = "公"

// Dog is an adoptable dog listing.
type Dog struct {
	ID          ID         `json:"id,omitempty"`
	Name        string     `json:"name"`
	Age         string     `json:"age"`
	Breed       string     `json:"breed"`
	Location    string     `json:"location"`
	Image       string     `json:"image"`
	Gender      string     `json:"gender"`
	Description *string    `json:"description"`
	Traits      []string   `json:"traits"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Favorite is one favorited dog as returned to the owner: {dog_id, dogs: {...}}.
type Favorite struct {
	DogID ID   `json:"dog_id"`
	Dog   *Dog `json:"dogs"`
}

// FavoriteStatus is the outcome of a toggle.
type FavoriteStatus string

const (
	FavoriteAdded   FavoriteStatus = "added"
	FavoriteRemoved FavoriteStatus = "removed"
)
