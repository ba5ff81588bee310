package domain

import (
	"fmt"
	"sort"
	"strings"
)

// IndexRun identifies one chunking configuration and its on-disk index.
type IndexRun struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
}

// Validate returns ErrInvalidParameter if the pair cannot be chunked.
func (r IndexRun) Validate() error {
	if r.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidParameter, r.ChunkSize)
	}
	if r.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrInvalidParameter, r.ChunkOverlap)
	}
	if r.ChunkOverlap >= r.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be smaller than chunk_size %d",
			ErrInvalidParameter, r.ChunkOverlap, r.ChunkSize)
	}
	return nil
}

// DirName returns the index directory name for this run.
// Distinct (size, overlap) pairs never share a name.
func (r IndexRun) DirName() string {
	return fmt.Sprintf("db_size_%d_overlap_%d", r.ChunkSize, r.ChunkOverlap)
}

// String returns the string representation.
func (r IndexRun) String() string {
	return fmt.Sprintf("size=%d overlap=%d", r.ChunkSize, r.ChunkOverlap)
}

// ParseIndexDirName is the inverse of DirName.
func ParseIndexDirName(name string) (IndexRun, bool) {
	var run IndexRun
	n, err := fmt.Sscanf(name, "db_size_%d_overlap_%d", &run.ChunkSize, &run.ChunkOverlap)
	if err != nil || n != 2 || run.DirName() != name {
		return IndexRun{}, false
	}
	return run, true
}

// EvaluationQuestion is a question with the substring expected in its context.
type EvaluationQuestion struct {
	Question     string `json:"question" yaml:"question"`
	ExpectedText string `json:"expected_text" yaml:"expected_text"`
}

// EvaluationResult is the accuracy of one (size, overlap, k) configuration.
type EvaluationResult struct {
	ChunkSize    int     `json:"chunk_size"`
	ChunkOverlap int     `json:"chunk_overlap"`
	K            int     `json:"k"`
	Accuracy     float64 `json:"accuracy"`
}

// RankResults sorts results by accuracy, highest first.
// Ties keep their enumeration order.
func RankResults(results []EvaluationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Accuracy > results[j].Accuracy
	})
}

// Accuracy returns passes/total as a percentage. Zero total yields zero.
func Accuracy(passes, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passes) / float64(total) * 100
}

// JoinContext concatenates chunk texts with single spaces, in order.
func JoinContext(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i := range chunks {
		parts[i] = chunks[i].Content
	}
	return strings.Join(parts, " ")
}

// ContextContains reports whether expected occurs in the joined chunk texts,
// ignoring case.
func ContextContains(chunks []Chunk, expected string) bool {
	return strings.Contains(strings.ToLower(JoinContext(chunks)), strings.ToLower(expected))
}

// QuestionOutcome records how one question fared under a configuration.
type QuestionOutcome struct {
	Index        int     `json:"index"`
	Question     string  `json:"question"`
	ExpectedText string  `json:"expected_text"`
	Passed       bool    `json:"passed"`
	Retrieved    []Chunk `json:"retrieved,omitempty"`
}

// DebugReport is the outcome of a single-configuration diagnostic run.
type DebugReport struct {
	Run       IndexRun          `json:"run"`
	K         int               `json:"k"`
	Outcomes  []QuestionOutcome `json:"outcomes"`
	Successes int               `json:"successes"`
	Total     int               `json:"total"`
	Accuracy  float64           `json:"accuracy"`
}

// Failures returns the outcomes that did not pass.
func (r *DebugReport) Failures() []QuestionOutcome {
	var failed []QuestionOutcome
	for _, o := range r.Outcomes {
		if !o.Passed {
			failed = append(failed, o)
		}
	}
	return failed
}

// SweepPhase is a state of the evaluation sweep.
type SweepPhase int

// Sweep phases, in the order a sweep moves through them.
const (
	SweepPending SweepPhase = iota
	SweepBuilding
	SweepScoring
	SweepDone
	// SweepSkipped marks a pair that never entered building,
	// or whose build failed.
	SweepSkipped
)

// String returns the phase name.
func (p SweepPhase) String() string {
	switch p {
	case SweepPending:
		return "pending"
	case SweepBuilding:
		return "building"
	case SweepScoring:
		return "scoring"
	case SweepDone:
		return "done"
	case SweepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SweepEvent reports a sweep transition. K and Accuracy are set while
// scoring; Err is set for skipped pairs.
type SweepEvent struct {
	Phase    SweepPhase
	Run      IndexRun
	K        int
	Accuracy float64
	Err      error
}
