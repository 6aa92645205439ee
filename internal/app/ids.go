package app

import "github.com/google/uuid"

// newGameID returns a random UUIDv4 string.
func newGameID() string { return uuid.NewString() }

// ValidID reports whether id has the shape of a game id.
func ValidID(id string) bool {
    _, err := uuid.Parse(id)
    return err == nil
}
