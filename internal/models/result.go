package models

import "time"

// ScanStats represents the aggregate result of one scan run
type ScanStats struct {
	FilesScanned uint64        `json:"files_scanned" yaml:"files_scanned"` // Files mapped and run through the engine
	BytesScanned uint64        `json:"bytes_scanned" yaml:"bytes_scanned"` // Sum of the sizes of scanned files
	Errors       uint64        `json:"errors" yaml:"errors"`               // Files that could not be opened, mapped or scanned
	MatchesFound uint64        `json:"matches_found" yaml:"matches_found"` // Rule matches reported
	FilesQueued  uint64        `json:"files_queued" yaml:"files_queued"`   // Regular files handed to the workers
	EmptyFiles   uint64        `json:"empty_files" yaml:"empty_files"`     // Zero-byte files, neither scanned nor errors
	DirsWalked   uint64        `json:"dirs_walked" yaml:"dirs_walked"`     // Directories read by the walker
	DirsSkipped  uint64        `json:"dirs_skipped" yaml:"dirs_skipped"`   // Directories that could not be read
	Workers      int           `json:"workers" yaml:"workers"`             // Worker goroutines used
	Duration     time.Duration `json:"duration" yaml:"duration"`           // Wall-clock time from first push to join
}

// FilesPerSecond returns the scan throughput in files per second
func (s ScanStats) FilesPerSecond() float64 {
	secs := s.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.FilesScanned) / secs
}

// BytesPerSecond returns the scan throughput in bytes per second
func (s ScanStats) BytesPerSecond() float64 {
	secs := s.Duration.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.BytesScanned) / secs
}

// Accounted returns the number of queued files that reached a final state
func (s ScanStats) Accounted() uint64 {
	return s.FilesScanned + s.Errors + s.EmptyFiles
}

// Clean reports whether the scan finished without errors or matches
func (s ScanStats) Clean() bool {
	return s.Errors == 0 && s.MatchesFound == 0
}
