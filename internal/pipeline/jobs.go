package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// JobStatus is the lifecycle state of an ingest job.
type JobStatus string

const (
	StatusQueued           JobStatus = "queued"
	StatusParsing          JobStatus = "parsing"
	StatusBuilding         JobStatus = "building"
	StatusSplitting        JobStatus = "splitting"
	StatusStoring          JobStatus = "storing"
	StatusCompleted        JobStatus = "completed"
	StatusFailed           JobStatus = "failed"
	StatusPartial          JobStatus = "partial"
	StatusDuplicateSkipped JobStatus = "duplicate_skipped"
)

// Progress tracks how far an ingest job has come.
type Progress struct {
	ElementsBuilt int      `json:"elements_built"`
	TreeRoots     int      `json:"tree_roots"`
	EntitiesFound int      `json:"entities_found"`
	Errors        []string `json:"errors,omitempty"`
}

// Job is one document moving through the ingest pipeline. Mutations
// go through the methods below; the worker and the API read
// snapshots.
type Job struct {
	ID        string
	Filename  string
	Status    JobStatus
	Phase     string
	DocID     string
	CreatedAt time.Time
	UpdatedAt time.Time

	mu       sync.Mutex
	progress Progress
	fileData []byte
}

// NewJob creates a queued job holding the uploaded file bytes.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// SetStatus transitions the job and records a human-readable phase.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetDocID records the stored document id once known.
func (j *Job) SetDocID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.DocID = id
	j.UpdatedAt = time.Now()
}

// AddError appends a non-fatal error to the job's progress.
func (j *Job) AddError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress.Errors = append(j.progress.Errors, msg)
	j.UpdatedAt = time.Now()
}

// SetCounts records the sizes of the built tree and entity split.
func (j *Job) SetCounts(elements, roots, entities int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress.ElementsBuilt = elements
	j.progress.TreeRoots = roots
	j.progress.EntitiesFound = entities
	j.UpdatedAt = time.Now()
}

// SetFileData replaces the job's file bytes.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the uploaded file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// ReleaseFileData drops the file bytes once the worker is done with
// them, so finished jobs don't pin uploads in memory until the TTL.
func (j *Job) ReleaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a copy of a job's state safe to serialize.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Filename  string    `json:"filename"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	DocID     string    `json:"document_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Progress  Progress  `json:"progress"`
}

// Snapshot returns a copy of the job's current state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	errs := make([]string, len(j.progress.Errors))
	copy(errs, j.progress.Errors)
	p := j.progress
	p.Errors = errs

	return JobSnapshot{
		ID:        j.ID,
		Filename:  j.Filename,
		Status:    j.Status,
		Phase:     j.Phase,
		DocID:     j.DocID,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
		Progress:  p,
	}
}

// JobStore keeps jobs in memory with a TTL on finished entries.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
}

// NewJobStore creates a store whose Cleanup expires jobs whose last
// update is older than ttl.
func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

// Put registers a job.
func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns the job with the given id, or nil.
func (s *JobStore) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// Cleanup removes jobs whose last update is older than the TTL.
func (s *JobStore) Cleanup() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		job.mu.Lock()
		stale := job.UpdatedAt.Before(cutoff)
		job.mu.Unlock()
		if stale {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex returns the hex SHA-256 of data, used to detect
// re-uploads of the same file.
func ContentHashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
