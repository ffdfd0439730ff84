package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/domain/model"
	convsvc "github.com/moonssword/dating-bot/internal/services/conversation"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewSessionRepo(client, time.Hour)
	ctx := context.Background()

	session := convsvc.Session{
		AccountID: 42,
		State:     enums.ChatStateViewingProfiles,
		Draft: convsvc.Draft{
			Locale:      "ru",
			Gender:      enums.GenderFemale,
			DisplayName: "Anna",
			Birthdate:   "1995-06-15",
			About:       "hi there",
			Location:    model.Location{Locality: "Almaty", Country: "Kazakhstan", Latitude: 43.2, Longitude: 76.9, SentGeolocation: true},
			Photo:       model.ProfilePhoto{PhotoID: 7, Path: "p", BlurredPath: "b"},
		},
		CandidateID:      99,
		ReportTargetID:   3,
		CityOptionsToken: "tok-1",
		LastPromptID:     1234,
	}
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	got, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.State != session.State {
		t.Fatalf("unexpected state: got %s want %s", got.State, session.State)
	}
	if got.Draft.Location.Locality != "Almaty" || !got.Draft.Location.SentGeolocation {
		t.Fatalf("unexpected draft location: %+v", got.Draft.Location)
	}
	if got.Draft.Photo.PhotoID != 7 {
		t.Fatalf("unexpected draft photo: %+v", got.Draft.Photo)
	}
	if got.CandidateID != 99 || got.ReportTargetID != 3 || got.LastPromptID != 1234 {
		t.Fatalf("unexpected scalar fields: %+v", got)
	}
}

func TestSessionMissing(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewSessionRepo(client, time.Hour)

	_, err := repo.Get(context.Background(), 7)
	if !errors.Is(err, convsvc.ErrSessionNotFound) {
		t.Fatalf("unexpected error: got %v want %v", err, convsvc.ErrSessionNotFound)
	}
}

func TestSessionTTLRefreshedOnSave(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewSessionRepo(client, time.Minute)
	ctx := context.Background()

	session := convsvc.Session{AccountID: 1, State: enums.ChatStateMainMenu}
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	mr.FastForward(59 * time.Second)
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("second save: %v", err)
	}
	mr.FastForward(30 * time.Second)

	if _, err := repo.Get(ctx, 1); err != nil {
		t.Fatalf("session expired despite refresh: %v", err)
	}

	mr.FastForward(time.Hour)
	if _, err := repo.Get(ctx, 1); !errors.Is(err, convsvc.ErrSessionNotFound) {
		t.Fatalf("unexpected error after ttl: %v", err)
	}
}

func TestSessionDelete(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewSessionRepo(client, time.Hour)
	ctx := context.Background()

	if err := repo.Save(ctx, convsvc.Session{AccountID: 2, State: enums.ChatStateMainMenu}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := repo.Delete(ctx, 2); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := repo.Get(ctx, 2); !errors.Is(err, convsvc.ErrSessionNotFound) {
		t.Fatalf("unexpected error after delete: %v", err)
	}
}
