package pipeline

import (
	"sync"
	"time"
)

// Phase is the pipeline stage a run is currently in.
type Phase string

const (
	PhaseQueued        Phase = "queued"
	PhaseParsing       Phase = "parsing"
	PhaseChunking      Phase = "chunking"
	PhaseSummarizing   Phase = "summarizing"
	PhaseConsolidating Phase = "consolidating"
	PhasePolishing     Phase = "polishing"
	PhaseCompleted     Phase = "completed"
	PhaseError         Phase = "error"
)

// Run tracks the state of a single summarization run. All mutation goes
// through the worker processing the run; everyone else reads snapshots.
type Run struct {
	mu sync.Mutex

	ID       string
	Filename string
	Language string

	phase     Phase
	progress  int // percent, monotonically non-decreasing within a run
	tokens    int
	estimate  int // estimated total duration, seconds
	startedAt time.Time

	summary  string
	partial  bool
	recordID string
	errMsg   string
	errKind  ErrorKind

	CreatedAt time.Time
	UpdatedAt time.Time

	fileData []byte
}

// NewRun creates a queued run holding the uploaded document bytes.
func NewRun(id, filename, language string, fileData []byte) *Run {
	now := time.Now()
	return &Run{
		ID:        id,
		Filename:  filename,
		Language:  language,
		phase:     PhaseQueued,
		fileData:  fileData,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start marks the moment processing begins, for elapsed-time accounting.
func (r *Run) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startedAt = time.Now()
	r.UpdatedAt = r.startedAt
}

// SetPhase moves the run to a new pipeline stage.
func (r *Run) SetPhase(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = p
	r.UpdatedAt = time.Now()
}

// AdvanceProgress raises the progress percentage. Values below the current
// progress or outside [0,100] are clamped, keeping the displayed percentage
// monotone within a run.
func (r *Run) AdvanceProgress(pct int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pct > 100 {
		pct = 100
	}
	if pct > r.progress {
		r.progress = pct
	}
	r.UpdatedAt = time.Now()
}

// AddTokens accumulates reported token usage.
func (r *Run) AddTokens(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens += n
	r.UpdatedAt = time.Now()
}

// Tokens returns the accumulated token usage.
func (r *Run) Tokens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens
}

// SetEstimate replaces the estimated total duration in seconds.
func (r *Run) SetEstimate(seconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	r.estimate = seconds
	r.UpdatedAt = time.Now()
}

// Complete resolves the run with a final summary. partial marks the
// degraded outcome where the raw draft stands in for the polished text.
func (r *Run) Complete(summary string, partial bool, recordID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhaseCompleted
	r.progress = 100
	r.summary = summary
	r.partial = partial
	r.recordID = recordID
	r.UpdatedAt = time.Now()
}

// Fail resolves the run as a fatal error.
func (r *Run) Fail(kind ErrorKind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhaseError
	r.errKind = kind
	r.errMsg = err.Error()
	r.UpdatedAt = time.Now()
}

// FileData returns the raw uploaded bytes.
func (r *Run) FileData() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fileData
}

// ReleaseFileData drops the uploaded bytes once the run is terminal.
func (r *Run) ReleaseFileData() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fileData = nil
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID               string    `json:"run_id"`
	Filename         string    `json:"filename"`
	Language         string    `json:"language"`
	Phase            Phase     `json:"phase"`
	Progress         int       `json:"progress"`
	Tokens           int       `json:"tokens"`
	EstimatedTotalS  int       `json:"estimated_total_seconds"`
	RemainingS       int       `json:"remaining_seconds"`
	Summary          string    `json:"summary,omitempty"`
	Partial          bool      `json:"partial,omitempty"`
	RecordID         string    `json:"record_id,omitempty"`
	Error            string    `json:"error,omitempty"`
	ErrorKind        ErrorKind `json:"error_kind,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Snapshot returns a consistent copy of the run state. Remaining time is
// clamped to zero so displays never show a negative countdown.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := 0
	if !r.startedAt.IsZero() {
		elapsed := int(time.Since(r.startedAt).Seconds())
		if r.estimate > elapsed {
			remaining = r.estimate - elapsed
		}
	} else {
		remaining = r.estimate
	}

	return RunSnapshot{
		ID:              r.ID,
		Filename:        r.Filename,
		Language:        r.Language,
		Phase:           r.phase,
		Progress:        r.progress,
		Tokens:          r.tokens,
		EstimatedTotalS: r.estimate,
		RemainingS:      remaining,
		Summary:         r.summary,
		Partial:         r.partial,
		RecordID:        r.recordID,
		Error:           r.errMsg,
		ErrorKind:       r.errKind,
		CreatedAt:       r.CreatedAt,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Cleanup removes runs idle longer than the TTL.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		idle := now.Sub(run.UpdatedAt)
		run.mu.Unlock()
		if idle > s.ttl {
			delete(s.runs, id)
		}
	}
}
