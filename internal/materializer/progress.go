package materializer

import "sync"

// Stage names one phase of a materialization run, reported by Progress
// for the /materialize/progress endpoint.
type Stage string

const (
	StageIdle      Stage = "idle"
	StagePlanning  Stage = "planning"
	StageStaging   Stage = "staging"
	StageRepairing Stage = "repairing"
	StageSwapping  Stage = "swapping"
	StageComplete  Stage = "complete"
	StageFailed    Stage = "failed"
)

// Progress is a mutex-guarded snapshot of the current materialization
// run's state, safe to read concurrently with Run mutating it.
type Progress struct {
	mu    sync.RWMutex
	stage Stage
	rows  int
	err   string
}

// NewProgress returns an idle tracker.
func NewProgress() *Progress {
	return &Progress{stage: StageIdle}
}

func (p *Progress) set(stage Stage, rows int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = stage
	p.rows = rows
	if err != nil {
		p.err = err.Error()
	} else {
		p.err = ""
	}
}

// Snapshot returns the current stage, row count, and error message (if
// the last run failed).
func (p *Progress) Snapshot() (stage Stage, rows int, errMsg string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stage, p.rows, p.err
}
