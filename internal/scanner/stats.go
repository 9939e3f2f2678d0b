package scanner

import (
	"sync"

	"github.com/harrison/mapscan/internal/models"
)

// Stats holds the counters shared by all workers. Every update takes the
// same mutex; the values are read through Snapshot once the workers joined.
type Stats struct {
	mu sync.Mutex

	filesScanned uint64
	bytesScanned uint64
	errors       uint64
	matchesFound uint64
	emptyFiles   uint64
}

func (s *Stats) addScanned(size uint64) {
	s.mu.Lock()
	s.filesScanned++
	s.bytesScanned += size
	s.mu.Unlock()
}

func (s *Stats) addError() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}

func (s *Stats) addEmpty() {
	s.mu.Lock()
	s.emptyFiles++
	s.mu.Unlock()
}

func (s *Stats) addMatch() {
	s.mu.Lock()
	s.matchesFound++
	s.mu.Unlock()
}

// Snapshot copies the counters into a ScanStats.
func (s *Stats) Snapshot() models.ScanStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ScanStats{
		FilesScanned: s.filesScanned,
		BytesScanned: s.bytesScanned,
		Errors:       s.errors,
		MatchesFound: s.matchesFound,
		EmptyFiles:   s.emptyFiles,
	}
}
