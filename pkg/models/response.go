package models

import (
	"sort"
	"time"
)

// WorkerResponse is what the transport boundary hands back for one queried
// worker. It is owned by the transport; the validator core only reads it.
type WorkerResponse struct {
	// WorkerID is the identity (hotkey) of the responding worker.
	WorkerID string

	// StatusCode follows HTTP conventions; anything other than 200 marks
	// the response invalid for scoring.
	StatusCode int

	StatusMessage string

	// ProcessTime is how long the worker reports the simulation took.
	ProcessTime time.Duration

	// MDOutput is the returned output file bundle (name -> contents).
	MDOutput map[string][]byte
}

// ReturnedFiles lists the names of the files in the output bundle.
func (r WorkerResponse) ReturnedFiles() []string {
	files := make([]string, 0, len(r.MDOutput))
	for name := range r.MDOutput {
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}
