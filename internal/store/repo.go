package store

import (
	"context"
	"time"

	"github.com/englishaidol/aidol/internal/csvimport"
)

// QueryOpts configures list queries.
type QueryOpts struct {
	Limit  int // max results (0 = unlimited)
	Offset int
}

// Diagnostics is the warning and error detail stored with an import.
type Diagnostics struct {
	Warnings []csvimport.Diagnostic `json:"warnings"`
	Errors   []csvimport.Diagnostic `json:"errors"`
}

// ImportBatch records one upload: where it came from and what happened.
type ImportBatch struct {
	ID          string              `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	Filename    string              `json:"filename,omitempty"`
	SkillType   csvimport.SkillType `json:"skill_type"`
	SkillTestID string              `json:"skill_test_id"`
	Summary     csvimport.Summary   `json:"summary"`
	Enriched    int                 `json:"enriched"`
	ArchiveKey  string              `json:"archive_key,omitempty"`
	Diagnostics Diagnostics         `json:"diagnostics"`
}

// Question is a stored, import-ready question.
type Question struct {
	ID        int64     `json:"id"`
	ImportID  string    `json:"import_id"`
	CreatedAt time.Time `json:"created_at"`
	csvimport.NormalizedRow
}

// ImportRepo persists import batches together with their questions.
type ImportRepo interface {
	// Save writes the batch and its rows in a single transaction.
	// Either everything is stored or nothing is.
	Save(ctx context.Context, batch *ImportBatch, rows []csvimport.NormalizedRow) error

	// Get returns one batch or ErrNotFound.
	Get(ctx context.Context, id string) (*ImportBatch, error)

	// List returns batches, newest first.
	List(ctx context.Context, opts QueryOpts) ([]ImportBatch, error)
}

// QuestionRepo reads stored questions.
type QuestionRepo interface {
	// ListBySkillTest returns the questions of one skill test in insert order.
	ListBySkillTest(ctx context.Context, skillTestID string, opts QueryOpts) ([]Question, error)

	// CountBySkillTest returns how many questions a skill test holds.
	CountBySkillTest(ctx context.Context, skillTestID string) (int, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates calls and tokens per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates calls and tokens per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
