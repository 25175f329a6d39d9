package file

import (
	"sort"
	"time"
)

// Backup describes one backup snapshot on the medium
type Backup struct {
	Name      string
	Path      string
	CreatedAt time.Time
}

// SortNewestFirst orders backups by creation time, newest first.
// Equal timestamps fall back to descending name order.
func SortNewestFirst(backups []Backup) {
	sort.SliceStable(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].Name > backups[j].Name
	})
}

// Expired returns the backups that fall outside the keep most recent ones.
// The input slice is not modified.
func Expired(backups []Backup, keep int) []Backup {
	if keep < 0 {
		keep = 0
	}
	if len(backups) <= keep {
		return nil
	}

	sorted := make([]Backup, len(backups))
	copy(sorted, backups)
	SortNewestFirst(sorted)

	return sorted[keep:]
}
