package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jask/statements/internal/canonical"
	"github.com/jask/statements/internal/database/repository"
)

// Validator inspects the merged store. It reports and never edits.
type Validator struct {
	Transactions *repository.TransactionRepo
	log          zerolog.Logger
}

func NewValidator(txs *repository.TransactionRepo, log zerolog.Logger) *Validator {
	return &Validator{Transactions: txs, log: log.With().Str("component", "validate").Logger()}
}

// FindDuplicateSuspects lists dividends stored more than once for the same
// date, item and rate.
func (v *Validator) FindDuplicateSuspects(ctx context.Context) ([]repository.Suspect, error) {
	suspects, err := v.Transactions.DuplicateDividendSuspects(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range suspects {
		v.log.Warn().
			Str("date", canonical.FormatDate(s.Date)).
			Str("item", s.Item).
			Str("ppu", s.PPU.String()).
			Int("count", s.Count).
			Strs("ids", s.IDs).
			Msg("possible duplicate dividend")
	}
	return suspects, nil
}
