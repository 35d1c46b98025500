// Package importer runs an uploaded CSV through normalization, optional AI
// enrichment, archival and persistence. The CLI and the HTTP API share it.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/englishaidol/aidol/internal/archive"
	"github.com/englishaidol/aidol/internal/csvimport"
	"github.com/englishaidol/aidol/internal/distractors"
	"github.com/englishaidol/aidol/internal/metrics"
	"github.com/englishaidol/aidol/internal/store"
)

// ErrInvalidRequest wraps problems with the request itself, as opposed to
// problems with the uploaded rows.
var ErrInvalidRequest = errors.New("invalid import request")

// ErrNotArchived is returned by RawUpload for imports stored while
// archiving was disabled.
var ErrNotArchived = errors.New("raw upload was not archived")

// Request is one upload.
type Request struct {
	Filename    string
	Content     string
	SkillType   string // any name csvimport.VariantFor accepts
	SkillTestID string
	DryRun      bool
	Enrich      bool
}

// Result describes what Import did.
type Result struct {
	ImportID   string            `json:"import_id,omitempty"`
	Output     *csvimport.Output `json:"output"`
	Inserted   int               `json:"inserted"`
	ArchiveKey string            `json:"archive_key,omitempty"`
	Enriched   int               `json:"enriched"`
	DryRun     bool              `json:"dry_run"`

	// Notes lists enrichment replacements.
	Notes []csvimport.Diagnostic `json:"notes,omitempty"`
}

// Enricher replaces placeholder distractors. *distractors.Enricher
// implements it.
type Enricher interface {
	Enrich(ctx context.Context, rows []csvimport.NormalizedRow) (*distractors.Result, error)
}

// Deps are the collaborators a Service needs. Only Imports is required
// for Import; Archiver, Enricher and Metrics may be nil.
type Deps struct {
	Imports   store.ImportRepo
	Questions store.QuestionRepo
	Archiver  archive.Archiver
	Enricher  Enricher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Service runs imports.
type Service struct {
	config csvimport.Config
	deps   Deps
	newID  func() string
}

// New creates a Service.
func New(cfg csvimport.Config, deps Deps) *Service {
	if deps.Archiver == nil {
		deps.Archiver = archive.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Service{config: cfg, deps: deps, newID: uuid.NewString}
}

// CanEnrich reports whether an enricher is configured.
func (s *Service) CanEnrich() bool {
	return s.deps.Enricher != nil
}

// Preview normalizes the upload without side effects. A *csvimport.HeaderError
// is returned alongside a populated Output.
func (s *Service) Preview(_ context.Context, req Request) (*csvimport.Output, error) {
	n, err := s.normalizer(req)
	if err != nil {
		return nil, err
	}
	return n.Normalize(req.Content, req.SkillTestID)
}

// Import normalizes the upload and, unless DryRun is set, enriches,
// archives and stores it. Rows with problems are reported in
// Result.Output, not as an error. A header problem returns a
// *csvimport.HeaderError together with the Result; nothing is stored.
func (s *Service) Import(ctx context.Context, req Request) (*Result, error) {
	n, err := s.normalizer(req)
	if err != nil {
		return nil, err
	}
	if req.Enrich && s.deps.Enricher == nil && !req.DryRun {
		return nil, fmt.Errorf("%w: enrichment requested but no LLM provider is configured", ErrInvalidRequest)
	}

	skill := n.Variant().SkillType()
	out, err := n.Normalize(req.Content, req.SkillTestID)
	res := &Result{Output: out, DryRun: req.DryRun}
	if err != nil {
		if !req.DryRun {
			s.deps.Metrics.ObserveImport(skill, out)
		}
		return res, err
	}
	if req.DryRun {
		return res, nil
	}

	rows := out.Insert
	if req.Enrich && hasPlaceholders(rows) {
		er, err := s.deps.Enricher.Enrich(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("enrich distractors: %w", err)
		}
		s.deps.Metrics.ObserveEnrichment(er.Replaced, er.Kept, er.Failed)
		rows = er.Rows
		out.Insert = rows
		res.Enriched = er.Replaced
		res.Notes = er.Notes
	}

	res.ImportID = s.newID()
	key, err := s.deps.Archiver.Put(ctx, archive.Key(req.SkillTestID, res.ImportID), []byte(req.Content))
	if err != nil {
		return nil, fmt.Errorf("archive upload: %w", err)
	}
	res.ArchiveKey = key

	batch := &store.ImportBatch{
		ID:          res.ImportID,
		Filename:    req.Filename,
		SkillType:   skill,
		SkillTestID: req.SkillTestID,
		Summary:     out.Summary,
		Enriched:    res.Enriched,
		ArchiveKey:  key,
		Diagnostics: store.Diagnostics{Warnings: out.Warnings, Errors: out.Errors},
	}
	if err := s.deps.Imports.Save(ctx, batch, rows); err != nil {
		s.discardArchive(ctx, key)
		return nil, fmt.Errorf("save import: %w", err)
	}
	res.Inserted = len(rows)

	s.deps.Metrics.ObserveImport(skill, out)
	s.deps.Logger.Info("import stored",
		zap.String("import_id", res.ImportID),
		zap.String("skill_type", string(skill)),
		zap.String("skill_test_id", req.SkillTestID),
		zap.Int("rows_received", out.Summary.RowsReceived),
		zap.Int("rows_valid", out.Summary.RowsValid),
		zap.Int("rows_with_errors", out.Summary.RowsWithErrors),
		zap.Int("enriched", res.Enriched))

	return res, nil
}

// Batches lists stored imports, newest first.
func (s *Service) Batches(ctx context.Context, opts store.QueryOpts) ([]store.ImportBatch, error) {
	return s.deps.Imports.List(ctx, opts)
}

// Batch returns one stored import or store.ErrNotFound.
func (s *Service) Batch(ctx context.Context, id string) (*store.ImportBatch, error) {
	return s.deps.Imports.Get(ctx, id)
}

// RawUpload returns the archived file of a stored import. It returns
// store.ErrNotFound for an unknown id and ErrNotArchived when no copy was kept.
func (s *Service) RawUpload(ctx context.Context, id string) ([]byte, error) {
	b, err := s.deps.Imports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ArchiveKey == "" {
		return nil, fmt.Errorf("import %s: %w", id, ErrNotArchived)
	}
	data, err := s.deps.Archiver.Get(ctx, b.ArchiveKey)
	if err != nil {
		return nil, fmt.Errorf("read archived upload: %w", err)
	}
	return data, nil
}

// discardArchive removes an upload whose import was not stored.
func (s *Service) discardArchive(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.deps.Archiver.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.deps.Logger.Warn("failed to remove archived upload of unsaved import",
			zap.String("archive_key", key), zap.Error(err))
	}
}

// Questions lists the stored questions of one skill test.
func (s *Service) Questions(ctx context.Context, skillTestID string, opts store.QueryOpts) ([]store.Question, error) {
	if strings.TrimSpace(skillTestID) == "" {
		return nil, fmt.Errorf("%w: skill test id is required", ErrInvalidRequest)
	}
	return s.deps.Questions.ListBySkillTest(ctx, skillTestID, opts)
}

func (s *Service) normalizer(req Request) (*csvimport.Normalizer, error) {
	if strings.TrimSpace(req.SkillTestID) == "" {
		return nil, fmt.Errorf("%w: skill test id is required", ErrInvalidRequest)
	}
	v, err := csvimport.VariantFor(req.SkillType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return csvimport.New(v, s.config), nil
}

func hasPlaceholders(rows []csvimport.NormalizedRow) bool {
	for i := range rows {
		if rows[i].HasPlaceholders() {
			return true
		}
	}
	return false
}
