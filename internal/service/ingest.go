package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/statements/internal/adapters"
	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/database"
	"github.com/jask/statements/internal/database/repository"
	"github.com/jask/statements/internal/source"
	"github.com/jask/statements/internal/staging"
)

// IngestService runs one import: stage every statement file of a platform,
// normalize them together and merge the result into the store.
type IngestService struct {
	DB       *sql.DB
	Adapters adapters.Options
	Log      zerolog.Logger
}

func NewIngestService(db *sql.DB, opts adapters.Options, log zerolog.Logger) *IngestService {
	return &IngestService{DB: db, Adapters: opts, Log: log.With().Str("component", "ingest").Logger()}
}

// FileResult is the outcome of staging one file. A failed file contributes
// nothing to the run.
type FileResult struct {
	Path string
	Rows int
	Err  error
}

type RunResult struct {
	RunID    string
	Platform string
	Files    []FileResult
	Merge    repository.MergeResult
	Issues   []canonical.Issue
	Suspects []repository.Suspect
}

// Failed counts files that were rejected.
func (r RunResult) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// ImportDir imports every CSV file directly inside dir.
func (s *IngestService) ImportDir(ctx context.Context, dir, platform string) (RunResult, error) {
	files, err := source.List(dir)
	if err != nil {
		return RunResult{}, err
	}
	return s.ImportFiles(ctx, platform, files)
}

// ImportFiles imports paths as statements of platform. Files that cannot be
// read or do not match the platform layout are reported and skipped; the
// remaining records are merged in a single transaction.
func (s *IngestService) ImportFiles(ctx context.Context, platform string, paths []string) (RunResult, error) {
	adapter, err := adapters.New(platform, s.Adapters)
	if err != nil {
		return RunResult{}, err
	}
	res := RunResult{RunID: uuid.NewString(), Platform: adapter.Platform()}
	log := s.Log.With().Str("run", res.RunID).Str("platform", res.Platform).Logger()

	area := staging.NewArea()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		fr := FileResult{Path: path}
		f, err := source.Open(path)
		if err == nil {
			before := area.Len()
			err = adapter.Stage(area, f)
			fr.Rows = area.Len() - before
		}
		if err != nil {
			fr.Err = err
			log.Warn().Err(err).Str("file", path).Msg("statement skipped")
		}
		res.Files = append(res.Files, fr)
	}

	batch, err := adapter.Normalize(ctx, area)
	if err != nil {
		return RunResult{}, fmt.Errorf("normalize %s statements: %w", res.Platform, err)
	}
	res.Issues = batch.Issues
	for _, is := range batch.Issues {
		log.Warn().Str("file", is.File).Int("line", is.Line).Err(is.Err).Msg("row skipped")
	}

	err = database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		store := repository.NewStore(tx)
		merged, err := store.Merge(ctx, batch)
		if err != nil {
			return err
		}
		res.Merge = merged
		for _, fr := range res.Files {
			entry := repository.ImportEntry{
				RunID:    res.RunID,
				Filename: fr.Path,
				Platform: res.Platform,
				Status:   repository.ImportOK,
				RowCount: fr.Rows,
			}
			if fr.Err != nil {
				entry.Status, entry.Error = repository.ImportFailed, fr.Err.Error()
			}
			if _, err := store.Imports.Record(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("merge %s statements: %w", res.Platform, err)
	}
	log.Info().
		Int("files", len(res.Files)).
		Int("failed", res.Failed()).
		Int("inserted", res.Merge.Inserted()).
		Int("issues", len(res.Issues)).
		Msg("import finished")

	validator := NewValidator(repository.NewTransactionRepo(s.DB), s.Log)
	if res.Suspects, err = validator.FindDuplicateSuspects(ctx); err != nil {
		return res, fmt.Errorf("validate: %w", err)
	}
	return res, nil
}
