package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/repository"
	"github.com/vasapolrittideah/ai-tutor-api/shared/cache"
	"github.com/vasapolrittideah/ai-tutor-api/shared/provider"
)

const tutorCacheNamespace = "tutor"

// TutorUsecase answers tutoring questions and analyses uploaded documents.
type TutorUsecase interface {
	Ask(ctx context.Context, user *model.User, topic string) (*TutorAnswer, error)
	AnalyzeDocument(ctx context.Context, user *model.User, filename string, content []byte) (*DocumentAnalysis, error)
	History(ctx context.Context, user *model.User) (*UsageHistory, error)
}

// TutorAnswer is the cached result of a tutor query.
type TutorAnswer struct {
	Response string `json:"response"`
	User     string `json:"user"`
}

// DocumentAnalysis is the result of analysing an upload.
type DocumentAnalysis struct {
	Response string `json:"response"`
	Filename string `json:"filename"`
	User     string `json:"user"`
}

// UsageHistory holds the recorded queries and documents of one user.
type UsageHistory struct {
	Queries   []model.Query
	Documents []model.Document
}

type tutorUsecase struct {
	generator provider.TextGenerator
	cache     cache.Cache
	usageRepo repository.UsageRepository
	logger    *zerolog.Logger
	timeout   time.Duration
	group     singleflight.Group
}

func NewTutorUsecase(
	generator provider.TextGenerator,
	responseCache cache.Cache,
	usageRepo repository.UsageRepository,
	logger *zerolog.Logger,
	timeout time.Duration,
) TutorUsecase {
	return &tutorUsecase{
		generator: generator,
		cache:     responseCache,
		usageRepo: usageRepo,
		logger:    logger,
		timeout:   timeout,
	}
}

// Ask returns the cached answer for (user, topic) or generates a new one.
// Cache failures degrade to a miss.
func (u *tutorUsecase) Ask(ctx context.Context, user *model.User, topic string) (*TutorAnswer, error) {
	topic = normalizeTopic(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	key := cache.Key(tutorCacheNamespace, user.Username, topic)
	if answer, ok := u.lookup(ctx, key); ok {
		u.logger.Info().Str("user", user.Username).Str("topic", topic).Msg("returning cached response")
		return answer, nil
	}

	// Concurrent identical misses share one generation. It runs detached from
	// any single caller so one disconnect does not fail the others; each caller
	// still stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := u.group.DoChan(key, func() (any, error) {
		return u.generateAnswer(shared, user, topic, key)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrExternalServiceFailure, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TutorAnswer), nil
	}
}

func (u *tutorUsecase) generateAnswer(ctx context.Context, user *model.User, topic, key string) (*TutorAnswer, error) {
	text, err := u.generate(ctx, tutorPrompt(topic))
	if err != nil {
		u.logger.Error().Err(err).Str("topic", topic).Msg("failed to generate tutor response")
		return nil, err
	}

	answer := &TutorAnswer{Response: text, User: user.Username}
	u.store(ctx, key, answer)
	u.logger.Info().Str("user", user.Username).Str("topic", topic).Msg("generated new response")

	if _, err := u.usageRepo.CreateQuery(ctx, &model.Query{
		UserID:   user.ID,
		Topic:    topic,
		Response: text,
	}); err != nil {
		u.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record query")
	}

	return answer, nil
}

func (u *tutorUsecase) AnalyzeDocument(
	ctx context.Context,
	user *model.User,
	filename string,
	content []byte,
) (*DocumentAnalysis, error) {
	if len(content) == 0 || !utf8.Valid(content) {
		return nil, ErrInvalidDocument
	}

	text, err := u.generate(ctx, documentPrompt(string(content)))
	if err != nil {
		u.logger.Error().Err(err).Str("filename", filename).Msg("failed to process file")
		return nil, err
	}

	if _, err := u.usageRepo.CreateDocument(ctx, &model.Document{
		UserID:   user.ID,
		Filename: filename,
		Content:  string(content),
		Response: text,
	}); err != nil {
		u.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record document")
	}

	return &DocumentAnalysis{Response: text, Filename: filename, User: user.Username}, nil
}

// History returns everything user asked the tutor and uploaded, oldest first.
func (u *tutorUsecase) History(ctx context.Context, user *model.User) (*UsageHistory, error) {
	queries, err := u.usageRepo.ListQueriesByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}

	documents, err := u.usageRepo.ListDocumentsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return &UsageHistory{Queries: queries, Documents: documents}, nil
}

func (u *tutorUsecase) generate(ctx context.Context, prompt string) (string, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	text, err := u.generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalServiceFailure, err)
	}

	return text, nil
}

func (u *tutorUsecase) lookup(ctx context.Context, key string) (*TutorAnswer, bool) {
	raw, err := u.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			u.logger.Warn().Err(err).Msg("response cache unavailable, recomputing")
		}
		return nil, false
	}

	var answer TutorAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		u.logger.Warn().Err(err).Msg("discarding undecodable cache entry")
		return nil, false
	}

	return &answer, true
}

func (u *tutorUsecase) store(ctx context.Context, key string, answer *TutorAnswer) {
	raw, err := json.Marshal(answer)
	if err != nil {
		u.logger.Warn().Err(err).Msg("failed to encode cache entry")
		return
	}

	if err := u.cache.Set(ctx, key, raw); err != nil {
		u.logger.Warn().Err(err).Msg("failed to write response cache")
	}
}

func normalizeTopic(topic string) string {
	return strings.TrimSpace(topic)
}
