package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/domain/rules"
	pgrepo "github.com/moonssword/dating-bot/internal/repo/postgres"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNoCandidate      = errors.New("no candidate available")
	ErrLikeLimitReached = errors.New("daily like limit reached")
)

type ProfileStore interface {
	Get(ctx context.Context, accountID int64) (model.Profile, error)
	FindNextCandidate(ctx context.Context, viewer model.Profile) (model.Profile, error)
}

type LikeStore interface {
	AddLike(ctx context.Context, tx pgx.Tx, fromAccountID, toAccountID int64) error
	HasLike(ctx context.Context, tx pgx.Tx, fromAccountID, toAccountID int64) (bool, error)
	AddDislike(ctx context.Context, fromAccountID, toAccountID int64) error
	CountLikesSince(ctx context.Context, fromAccountID int64, since time.Time) (int, error)
	ListLikers(ctx context.Context, toAccountID int64, limit int) ([]int64, error)
	CountLikers(ctx context.Context, toAccountID int64) (int, error)
}

type MatchStore interface {
	Create(ctx context.Context, tx pgx.Tx, accountA, accountB int64) (bool, error)
	Delete(ctx context.Context, tx pgx.Tx, accountA, accountB int64) (bool, error)
	ListForAccount(ctx context.Context, accountID int64) ([]pgrepo.MatchRecord, error)
}

type SubscriptionStore interface {
	Get(ctx context.Context, accountID int64) (model.Subscription, error)
}

type Config struct {
	DailyLikeLimit int
}

type Service struct {
	profiles      ProfileStore
	likes         LikeStore
	matches       MatchStore
	subscriptions SubscriptionStore
	cfg           Config
	runTx         func(context.Context, func(context.Context, pgx.Tx) error) error
	now           func() time.Time
}

type Dependencies struct {
	Pool          *pgxpool.Pool
	Profiles      ProfileStore
	Likes         LikeStore
	Matches       MatchStore
	Subscriptions SubscriptionStore
}

// Candidate is one profile to show. DistanceKM is set only when both
// sides shared explicit device geolocation.
type Candidate struct {
	Profile    model.Profile
	DistanceKM *float64
}

type LikeResult struct {
	Matched bool
	// Liked is the target's profile, loaded so the caller can notify
	// both sides without a second round trip.
	Liked model.Profile
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.DailyLikeLimit <= 0 {
		cfg.DailyLikeLimit = 50
	}

	return &Service{
		profiles:      deps.Profiles,
		likes:         deps.Likes,
		matches:       deps.Matches,
		subscriptions: deps.Subscriptions,
		cfg:           cfg,
		runTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, deps.Pool, fn)
		},
		now: time.Now,
	}
}

// NextCandidate returns the oldest eligible profile for the requester.
func (s *Service) NextCandidate(ctx context.Context, requesterID int64) (Candidate, error) {
	if requesterID <= 0 {
		return Candidate{}, ErrValidation
	}

	viewer, err := s.profiles.Get(ctx, requesterID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return Candidate{}, ErrNoCandidate
		}
		return Candidate{}, fmt.Errorf("load viewer profile: %w", err)
	}

	profile, err := s.profiles.FindNextCandidate(ctx, viewer)
	if err != nil {
		if errors.Is(err, pgrepo.ErrNoCandidates) || errors.Is(err, pgrepo.ErrProfileNotFound) {
			return Candidate{}, ErrNoCandidate
		}
		return Candidate{}, fmt.Errorf("find candidate: %w", err)
	}

	candidate := Candidate{Profile: profile}
	if viewer.Location.SentGeolocation && profile.Location.SentGeolocation {
		distance := rules.HaversineKM(
			viewer.Location.Latitude, viewer.Location.Longitude,
			profile.Location.Latitude, profile.Location.Longitude,
		)
		candidate.DistanceKM = &distance
	}

	return candidate, nil
}

// Like records the reaction and creates a match when the target has
// already liked back. Like and match land in one transaction so a
// crash cannot leave a reciprocal pair without its match row.
func (s *Service) Like(ctx context.Context, fromID, toID int64) (LikeResult, error) {
	if fromID <= 0 || toID <= 0 || fromID == toID {
		return LikeResult{}, ErrValidation
	}

	sub, err := s.subscriptions.Get(ctx, fromID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("load subscription: %w", err)
	}
	if !sub.Features.UnlimitedLikes {
		dayAgo := s.now().Add(-24 * time.Hour)
		count, err := s.likes.CountLikesSince(ctx, fromID, dayAgo)
		if err != nil {
			return LikeResult{}, fmt.Errorf("count likes: %w", err)
		}
		if count >= s.cfg.DailyLikeLimit {
			return LikeResult{}, ErrLikeLimitReached
		}
	}

	liked, err := s.profiles.Get(ctx, toID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return LikeResult{}, ErrNoCandidate
		}
		return LikeResult{}, fmt.Errorf("load liked profile: %w", err)
	}

	result := LikeResult{Liked: liked}
	err = s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.likes.AddLike(txCtx, tx, fromID, toID); err != nil {
			return fmt.Errorf("add like: %w", err)
		}

		mutual, err := s.likes.HasLike(txCtx, tx, toID, fromID)
		if err != nil {
			return fmt.Errorf("check reciprocal like: %w", err)
		}
		if !mutual {
			return nil
		}

		created, err := s.matches.Create(txCtx, tx, fromID, toID)
		if err != nil {
			return fmt.Errorf("create match: %w", err)
		}
		result.Matched = created
		return nil
	})
	if err != nil {
		return LikeResult{}, err
	}

	return result, nil
}

func (s *Service) Dislike(ctx context.Context, fromID, toID int64) error {
	if fromID <= 0 || toID <= 0 || fromID == toID {
		return ErrValidation
	}

	if err := s.likes.AddDislike(ctx, fromID, toID); err != nil {
		return fmt.Errorf("add dislike: %w", err)
	}
	return nil
}

// Unmatch removes the pair and records a dislike by the unmatching
// party. One dislike edge is enough: the candidate queue excludes a
// pair with a dislike in either direction, so neither side meets the
// other again.
func (s *Service) Unmatch(ctx context.Context, requesterID, otherID int64) error {
	if requesterID <= 0 || otherID <= 0 || requesterID == otherID {
		return ErrValidation
	}

	err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if _, err := s.matches.Delete(txCtx, tx, requesterID, otherID); err != nil {
			return fmt.Errorf("delete match: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.likes.AddDislike(ctx, requesterID, otherID); err != nil {
		return fmt.Errorf("add unmatch dislike: %w", err)
	}
	return nil
}

// Matches lists the requester's matched profiles, newest first.
func (s *Service) Matches(ctx context.Context, requesterID int64) ([]model.Profile, error) {
	if requesterID <= 0 {
		return nil, ErrValidation
	}

	records, err := s.matches.ListForAccount(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	profiles := make([]model.Profile, 0, len(records))
	for _, rec := range records {
		otherID := rec.AccountA
		if otherID == requesterID {
			otherID = rec.AccountB
		}
		profile, err := s.profiles.Get(ctx, otherID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrProfileNotFound) {
				continue
			}
			return nil, fmt.Errorf("load matched profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// LikesYou lists profiles that liked the requester and are not matched
// yet. Callers gate this behind the see-who-likes-you feature.
func (s *Service) LikesYou(ctx context.Context, requesterID int64, limit int) ([]model.Profile, error) {
	if requesterID <= 0 {
		return nil, ErrValidation
	}

	likers, err := s.likes.ListLikers(ctx, requesterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}

	profiles := make([]model.Profile, 0, len(likers))
	for _, id := range likers {
		profile, err := s.profiles.Get(ctx, id)
		if err != nil {
			if errors.Is(err, pgrepo.ErrProfileNotFound) {
				continue
			}
			return nil, fmt.Errorf("load liker profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// LikersCount backs the teaser shown to accounts without the feature.
func (s *Service) LikersCount(ctx context.Context, requesterID int64) (int, error) {
	if requesterID <= 0 {
		return 0, ErrValidation
	}

	count, err := s.likes.CountLikers(ctx, requesterID)
	if err != nil {
		return 0, fmt.Errorf("count likers: %w", err)
	}
	return count, nil
}
