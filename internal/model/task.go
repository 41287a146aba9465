package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyTitle is returned when a title is empty or whitespace-only.
var ErrEmptyTitle = errors.New("task title cannot be empty")

// Task is the domain model for a todo entry.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTask builds a pending task. The title must already be normalized.
func NewTask(id, title string, now time.Time) Task {
	return Task{
		ID:        id,
		Title:     title,
		CreatedAt: now.UTC(),
	}
}

// NewID returns a random UUIDv4 string.
func NewID() string { return uuid.NewString() }

// NormalizeTitle trims s and rejects blank titles.
func NormalizeTitle(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", ErrEmptyTitle
	}
	return t, nil
}
