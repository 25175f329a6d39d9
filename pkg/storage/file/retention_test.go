package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpired(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	backup := func(name string, minutes int) Backup {
		return Backup{Name: name, Path: "/backups/" + name, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
	}

	tests := []struct {
		name    string
		backups []Backup
		keep    int
		want    []string
	}{
		{
			name:    "under limit",
			backups: []Backup{backup("a", 1), backup("b", 2)},
			keep:    5,
			want:    nil,
		},
		{
			name:    "exactly at limit",
			backups: []Backup{backup("a", 1), backup("b", 2)},
			keep:    2,
			want:    nil,
		},
		{
			name:    "oldest expire first",
			backups: []Backup{backup("c", 3), backup("a", 1), backup("d", 4), backup("b", 2)},
			keep:    2,
			want:    []string{"b", "a"},
		},
		{
			name:    "ties fall back to name",
			backups: []Backup{backup("x", 1), backup("y", 1), backup("z", 1)},
			keep:    1,
			want:    []string{"y", "x"},
		},
		{
			name:    "negative keep expires everything",
			backups: []Backup{backup("a", 1)},
			keep:    -1,
			want:    []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]Backup(nil), tt.backups...)

			got := Expired(tt.backups, tt.keep)

			var names []string
			for _, b := range got {
				names = append(names, b.Name)
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, original, tt.backups, "input should not be reordered")
		})
	}
}
