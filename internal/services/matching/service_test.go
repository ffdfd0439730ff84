package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	pgrepo "github.com/moonssword/dating-bot/internal/repo/postgres"
)

type stubProfileStore struct {
	profiles  map[int64]model.Profile
	candidate *model.Profile
}

func (s *stubProfileStore) Get(_ context.Context, accountID int64) (model.Profile, error) {
	p, ok := s.profiles[accountID]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	return p, nil
}

func (s *stubProfileStore) FindNextCandidate(_ context.Context, _ model.Profile) (model.Profile, error) {
	if s.candidate == nil {
		return model.Profile{}, pgrepo.ErrNoCandidates
	}
	return *s.candidate, nil
}

type stubLikeStore struct {
	likes      map[[2]int64]bool
	dislikes   map[[2]int64]bool
	likeCount  int
	countSince int
	likers     []int64
}

func (s *stubLikeStore) AddLike(_ context.Context, _ pgx.Tx, from, to int64) error {
	if s.likes == nil {
		s.likes = map[[2]int64]bool{}
	}
	s.likes[[2]int64{from, to}] = true
	s.likeCount++
	return nil
}

func (s *stubLikeStore) HasLike(_ context.Context, _ pgx.Tx, from, to int64) (bool, error) {
	return s.likes[[2]int64{from, to}], nil
}

func (s *stubLikeStore) AddDislike(_ context.Context, from, to int64) error {
	if s.dislikes == nil {
		s.dislikes = map[[2]int64]bool{}
	}
	s.dislikes[[2]int64{from, to}] = true
	return nil
}

func (s *stubLikeStore) CountLikesSince(_ context.Context, _ int64, _ time.Time) (int, error) {
	return s.countSince, nil
}

func (s *stubLikeStore) ListLikers(_ context.Context, _ int64, _ int) ([]int64, error) {
	return s.likers, nil
}

func (s *stubLikeStore) CountLikers(_ context.Context, _ int64) (int, error) {
	return len(s.likers), nil
}

type stubMatchStore struct {
	created [][2]int64
	deleted [][2]int64
	records []pgrepo.MatchRecord
}

func (s *stubMatchStore) Create(_ context.Context, _ pgx.Tx, a, b int64) (bool, error) {
	s.created = append(s.created, [2]int64{a, b})
	return true, nil
}

func (s *stubMatchStore) Delete(_ context.Context, _ pgx.Tx, a, b int64) (bool, error) {
	s.deleted = append(s.deleted, [2]int64{a, b})
	return true, nil
}

func (s *stubMatchStore) ListForAccount(_ context.Context, _ int64) ([]pgrepo.MatchRecord, error) {
	return s.records, nil
}

type stubSubscriptionStore struct {
	sub model.Subscription
}

func (s *stubSubscriptionStore) Get(_ context.Context, accountID int64) (model.Subscription, error) {
	sub := s.sub
	sub.AccountID = accountID
	return sub, nil
}

func newTestService(profiles *stubProfileStore, likes *stubLikeStore, matches *stubMatchStore, subs *stubSubscriptionStore) *Service {
	svc := NewService(Dependencies{
		Profiles:      profiles,
		Likes:         likes,
		Matches:       matches,
		Subscriptions: subs,
	}, Config{DailyLikeLimit: 3})
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return svc
}

func activeProfile(id int64, gender enums.Gender) model.Profile {
	birthdate := time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC)
	return model.Profile{
		AccountID: id,
		Gender:    gender,
		Birthdate: &birthdate,
		IsActive:  true,
	}
}

func TestNextCandidateDistanceOnlyWhenBothShared(t *testing.T) {
	viewer := activeProfile(1, enums.GenderMale)
	viewer.Location = model.Location{Latitude: 55.75, Longitude: 37.61, SentGeolocation: true}

	candidate := activeProfile(2, enums.GenderFemale)
	candidate.Location = model.Location{Latitude: 59.93, Longitude: 30.33, SentGeolocation: true}

	profiles := &stubProfileStore{
		profiles:  map[int64]model.Profile{1: viewer},
		candidate: &candidate,
	}
	svc := newTestService(profiles, &stubLikeStore{}, &stubMatchStore{}, &stubSubscriptionStore{})

	got, err := svc.NextCandidate(context.Background(), 1)
	if err != nil {
		t.Fatalf("next candidate: %v", err)
	}
	if got.DistanceKM == nil {
		t.Fatalf("expected distance to be set")
	}
	if *got.DistanceKM < 600 || *got.DistanceKM > 700 {
		t.Fatalf("unexpected distance: got %v", *got.DistanceKM)
	}

	// Candidate picked a city by name instead of sharing coordinates.
	candidate.Location.SentGeolocation = false
	profiles.candidate = &candidate

	got, err = svc.NextCandidate(context.Background(), 1)
	if err != nil {
		t.Fatalf("next candidate: %v", err)
	}
	if got.DistanceKM != nil {
		t.Fatalf("expected no distance, got %v", *got.DistanceKM)
	}
}

func TestNextCandidateEmptyQueue(t *testing.T) {
	profiles := &stubProfileStore{
		profiles: map[int64]model.Profile{1: activeProfile(1, enums.GenderMale)},
	}
	svc := newTestService(profiles, &stubLikeStore{}, &stubMatchStore{}, &stubSubscriptionStore{})

	_, err := svc.NextCandidate(context.Background(), 1)
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrNoCandidate)
	}
}

func TestLikeCreatesMatchOnReciprocity(t *testing.T) {
	profiles := &stubProfileStore{profiles: map[int64]model.Profile{
		1: activeProfile(1, enums.GenderMale),
		2: activeProfile(2, enums.GenderFemale),
	}}
	likes := &stubLikeStore{likes: map[[2]int64]bool{{2, 1}: true}}
	matches := &stubMatchStore{}
	svc := newTestService(profiles, likes, matches, &stubSubscriptionStore{})

	result, err := svc.Like(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !result.Matched {
		t.Fatalf("expected match on reciprocal like")
	}
	if len(matches.created) != 1 {
		t.Fatalf("unexpected match creations: got %d want 1", len(matches.created))
	}
	if result.Liked.AccountID != 2 {
		t.Fatalf("unexpected liked profile: got %d", result.Liked.AccountID)
	}
}

func TestLikeWithoutReciprocityDoesNotMatch(t *testing.T) {
	profiles := &stubProfileStore{profiles: map[int64]model.Profile{
		1: activeProfile(1, enums.GenderMale),
		2: activeProfile(2, enums.GenderFemale),
	}}
	matches := &stubMatchStore{}
	svc := newTestService(profiles, &stubLikeStore{}, matches, &stubSubscriptionStore{})

	result, err := svc.Like(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if result.Matched {
		t.Fatalf("unexpected match without reciprocity")
	}
	if len(matches.created) != 0 {
		t.Fatalf("unexpected match creations: got %d want 0", len(matches.created))
	}
}

func TestLikeDailyLimitForBasicTier(t *testing.T) {
	profiles := &stubProfileStore{profiles: map[int64]model.Profile{
		1: activeProfile(1, enums.GenderMale),
		2: activeProfile(2, enums.GenderFemale),
	}}
	likes := &stubLikeStore{countSince: 3}
	svc := newTestService(profiles, likes, &stubMatchStore{}, &stubSubscriptionStore{})

	_, err := svc.Like(context.Background(), 1, 2)
	if !errors.Is(err, ErrLikeLimitReached) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrLikeLimitReached)
	}
}

func TestLikeUnlimitedForPaidFeature(t *testing.T) {
	profiles := &stubProfileStore{profiles: map[int64]model.Profile{
		1: activeProfile(1, enums.GenderMale),
		2: activeProfile(2, enums.GenderFemale),
	}}
	likes := &stubLikeStore{countSince: 1000}
	subs := &stubSubscriptionStore{sub: model.Subscription{
		Tier:     enums.TierPremium,
		IsActive: true,
		Features: model.Features{UnlimitedLikes: true},
	}}
	svc := newTestService(profiles, likes, &stubMatchStore{}, subs)

	if _, err := svc.Like(context.Background(), 1, 2); err != nil {
		t.Fatalf("like: %v", err)
	}
}

func TestUnmatchRecordsOneDirectionalDislike(t *testing.T) {
	profiles := &stubProfileStore{profiles: map[int64]model.Profile{
		1: activeProfile(1, enums.GenderMale),
		2: activeProfile(2, enums.GenderFemale),
	}}
	likes := &stubLikeStore{}
	matches := &stubMatchStore{}
	svc := newTestService(profiles, likes, matches, &stubSubscriptionStore{})

	if err := svc.Unmatch(context.Background(), 1, 2); err != nil {
		t.Fatalf("unmatch: %v", err)
	}
	if len(matches.deleted) != 1 {
		t.Fatalf("unexpected match deletions: got %d want 1", len(matches.deleted))
	}
	if !likes.dislikes[[2]int64{1, 2}] {
		t.Fatalf("expected dislike by the unmatching party")
	}
	if likes.dislikes[[2]int64{2, 1}] {
		t.Fatalf("unexpected dislike recorded for the other party")
	}
}

func TestMatchesResolvesOtherSide(t *testing.T) {
	profiles := &stubProfileStore{profiles: map[int64]model.Profile{
		1: activeProfile(1, enums.GenderMale),
		2: activeProfile(2, enums.GenderFemale),
		3: activeProfile(3, enums.GenderFemale),
	}}
	matches := &stubMatchStore{records: []pgrepo.MatchRecord{
		{AccountA: 1, AccountB: 3},
		{AccountA: 1, AccountB: 2},
	}}
	svc := newTestService(profiles, &stubLikeStore{}, matches, &stubSubscriptionStore{})

	got, err := svc.Matches(context.Background(), 1)
	if err != nil {
		t.Fatalf("matches: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected match count: got %d want 2", len(got))
	}
	if got[0].AccountID != 3 || got[1].AccountID != 2 {
		t.Fatalf("unexpected match order: got %d,%d", got[0].AccountID, got[1].AccountID)
	}
}

func TestLikesYouSkipsDeletedProfiles(t *testing.T) {
	profiles := &stubProfileStore{profiles: map[int64]model.Profile{
		1: activeProfile(1, enums.GenderMale),
		2: activeProfile(2, enums.GenderFemale),
	}}
	likes := &stubLikeStore{likers: []int64{2, 99}}
	svc := newTestService(profiles, likes, &stubMatchStore{}, &stubSubscriptionStore{})

	got, err := svc.LikesYou(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("likes you: %v", err)
	}
	if len(got) != 1 || got[0].AccountID != 2 {
		t.Fatalf("unexpected likers: %v", got)
	}

	count, err := svc.LikersCount(context.Background(), 1)
	if err != nil {
		t.Fatalf("likers count: %v", err)
	}
	if count != 2 {
		t.Fatalf("unexpected likers count: got %d want 2", count)
	}
}
