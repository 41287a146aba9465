package model

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "Buy milk", "Buy milk", false},
		{"padded", "  new  ", "new", false},
		{"tabs and newlines", "\tcall mom\n", "call mom", false},
		{"inner spaces kept", " a  b ", "a  b", false},
		{"empty", "", "", true},
		{"spaces only", "   ", "", true},
		{"whitespace mix", " \t\n ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTitle(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyTitle) {
					t.Fatalf("NormalizeTitle(%q) error = %v, want ErrEmptyTitle", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeTitle(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewTask(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, loc)

	task := NewTask("abc", "Buy milk", now)
	if task.ID != "abc" || task.Title != "Buy milk" {
		t.Fatalf("NewTask() = %+v", task)
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}
	if !task.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", task.CreatedAt, now)
	}
	if task.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", task.CreatedAt.Location())
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %s after %d draws", id, i)
		}
		seen[id] = true
	}
}
