package types

import "time"

// IndexStats summarizes the work an indexer has done since its last full reset
type IndexStats struct {
	FilesScanned    int
	FilesIndexed    int
	FilesSkipped    int
	FilesFailed     int
	FilesRemoved    int
	Symbols         int
	References      int
	Relations       int
	TasksProcessed  int
	PanicsRecovered int
	LastUpdate      time.Time
}
