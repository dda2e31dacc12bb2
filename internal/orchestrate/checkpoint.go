package orchestrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ruleproof/ruleproof/internal/model"
)

// checkpointFile is the on-disk shape: {workflow_id, citations, counts}.
type checkpointFile struct {
	WorkflowID string           `json:"workflow_id"`
	Citations  []citationState  `json:"citations"`
	Counts     checkpointCounts `json:"counts"`
}

type citationState struct {
	CitationRef string       `json:"citation_ref"`
	Status      model.Status `json:"status"`
}

type checkpointCounts struct {
	Total        int `json:"total"`
	Accepted     int `json:"accepted"`
	ManualReview int `json:"manual_review"`
}

// Checkpoint makes long batch runs resumable. It records the terminal
// status of each citation keyed by its ref; on resume, refs recorded as
// ACCEPTED are skipped while everything else is reprocessed from PENDING.
// Safe for concurrent use by the worker pool.
type Checkpoint struct {
	mu         sync.Mutex
	path       string
	workflowID string
	statuses   map[string]model.Status
}

// NewCheckpoint creates an empty checkpoint bound to a file path.
func NewCheckpoint(path, workflowID string) *Checkpoint {
	return &Checkpoint{
		path:       path,
		workflowID: workflowID,
		statuses:   make(map[string]model.Status),
	}
}

// LoadCheckpoint reads an existing checkpoint. A missing file yields an
// empty checkpoint so the first run and a resume share one code path.
func LoadCheckpoint(path, workflowID string) (*Checkpoint, error) {
	cp := NewCheckpoint(path, workflowID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cp, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}

	var file checkpointFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", path, err)
	}
	if file.WorkflowID != "" && file.WorkflowID != workflowID {
		return nil, fmt.Errorf("checkpoint %s belongs to workflow %q, not %q", path, file.WorkflowID, workflowID)
	}

	for _, c := range file.Citations {
		cp.statuses[c.CitationRef] = c.Status
	}
	return cp, nil
}

// Accepted reports whether a citation was already accepted by an earlier
// run. RETRY and MANUAL_REVIEW entries return false so they are redone.
func (cp *Checkpoint) Accepted(ref string) bool {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.statuses[ref] == model.StatusAccepted
}

// Record stores the status for one citation.
func (cp *Checkpoint) Record(ref string, status model.Status) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.statuses[ref] = status
}

// Flush writes the checkpoint atomically (temp file + rename) so a crash
// mid-write never corrupts the previous checkpoint.
func (cp *Checkpoint) Flush() error {
	cp.mu.Lock()
	file := checkpointFile{WorkflowID: cp.workflowID}

	refs := make([]string, 0, len(cp.statuses))
	for ref := range cp.statuses {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	for _, ref := range refs {
		status := cp.statuses[ref]
		file.Citations = append(file.Citations, citationState{CitationRef: ref, Status: status})
		file.Counts.Total++
		switch status {
		case model.StatusAccepted:
			file.Counts.Accepted++
		case model.StatusManualReview:
			file.Counts.ManualReview++
		}
	}
	path := cp.path
	cp.mu.Unlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

// Size returns the number of recorded citations.
func (cp *Checkpoint) Size() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return len(cp.statuses)
}
