package service

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/repository"
)

// UniqueCodeService manages the invitation codes respondents enter before
// starting the survey. Successful validations are cached in-process.
type UniqueCodeService struct {
	codes UniqueCodeStore
	cache *cache.Cache
	log   zerolog.Logger
}

// NewUniqueCodeService creates a new UniqueCodeService. ttl bounds how long
// a validated code is served from memory.
func NewUniqueCodeService(codes UniqueCodeStore, ttl time.Duration, log zerolog.Logger) *UniqueCodeService {
	return &UniqueCodeService{
		codes: codes,
		cache: cache.New(ttl, 2*ttl),
		log:   log.With().Str("component", "unique_code_service").Logger(),
	}
}

// Create registers one code.
func (s *UniqueCodeService) Create(ctx context.Context, req model.CreateUniqueCodeRequest) Result {
	code := &model.UniqueSurveyCode{NamaResponden: req.NamaResponden, KodeUnik: req.KodeUnik}
	err := s.codes.Create(ctx, code)
	if errors.Is(err, repository.ErrDuplicate) {
		return rejected(MsgUniqueCodeExists, nil)
	}
	if err != nil {
		return s.fault("Error creating unique code", err)
	}
	return ok(code)
}

// CreateMany inserts every code it can. Codes that already exist are listed
// in the result and do not stop the rest of the batch.
func (s *UniqueCodeService) CreateMany(ctx context.Context, reqs []model.CreateUniqueCodeRequest) Result {
	if len(reqs) == 0 {
		return rejected(MsgUniqueCodeBulkEmpty, nil)
	}

	codes := make([]model.UniqueSurveyCode, 0, len(reqs))
	for _, r := range reqs {
		codes = append(codes, model.UniqueSurveyCode{NamaResponden: r.NamaResponden, KodeUnik: r.KodeUnik})
	}

	result, err := s.codes.CreateMany(ctx, codes)
	if err != nil {
		return s.fault("Error creating unique codes", err)
	}

	s.log.Info().
		Int("inserted", len(result.Inserted)).
		Int("duplicates", len(result.Duplicates)).
		Msg("Unique codes imported")

	if len(result.Duplicates) > 0 {
		return Result{Success: true, Data: result, Message: MsgUniqueCodeBulkPartly}
	}
	return ok(result)
}

// Delete removes a code and evicts it from the validation cache.
func (s *UniqueCodeService) Delete(ctx context.Context, kodeUnik string) Result {
	deleted, err := s.codes.DeleteByCode(ctx, kodeUnik)
	s.cache.Delete(config.CacheKey.UniqueCodeKey(kodeUnik))
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(MsgUniqueCodeNotFound)
	}
	if err != nil {
		return s.fault("Error deleting unique code", err)
	}
	return ok(deleted)
}

// Validate reports whether kodeUnik was issued, returning the code record.
func (s *UniqueCodeService) Validate(ctx context.Context, kodeUnik string) Result {
	key := config.CacheKey.UniqueCodeKey(kodeUnik)
	if cached, found := s.cache.Get(key); found {
		return ok(cached.(*model.UniqueSurveyCode))
	}

	code, err := s.codes.GetByCode(ctx, kodeUnik)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(MsgUniqueCodeInvalid)
	}
	if err != nil {
		return s.fault("Error validating unique code", err)
	}

	s.cache.Set(key, code, cache.DefaultExpiration)
	return ok(code)
}

func (s *UniqueCodeService) fault(msg string, err error) Result {
	s.log.Error().Err(err).Msg(msg)
	return fault(msg, err)
}
