package geo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/geocode"
)

type stubGeocoder struct {
	reversePlace geocode.Place
	reverseErr   error
	searchPlaces []geocode.Place
	searchErr    error
	lastQuery    string
}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (geocode.Place, error) {
	return s.reversePlace, s.reverseErr
}

func (s *stubGeocoder) Search(ctx context.Context, query string, limit int) ([]geocode.Place, error) {
	s.lastQuery = query
	return s.searchPlaces, s.searchErr
}

type stubOptionCache struct {
	stored  map[string][]model.Location
	nextTok string
	getErr  error
	deleted []string
}

func (s *stubOptionCache) Put(ctx context.Context, options []model.Location) (string, error) {
	if s.stored == nil {
		s.stored = map[string][]model.Location{}
	}
	tok := s.nextTok
	if tok == "" {
		tok = "tok-1"
	}
	s.stored[tok] = options
	return tok, nil
}

func (s *stubOptionCache) Get(ctx context.Context, token string) ([]model.Location, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	options, ok := s.stored[token]
	if !ok {
		return nil, fmt.Errorf("missing token %s", token)
	}
	return options, nil
}

func (s *stubOptionCache) Delete(ctx context.Context, token string) error {
	s.deleted = append(s.deleted, token)
	return nil
}

func TestResolveLocation(t *testing.T) {
	gc := &stubGeocoder{reversePlace: geocode.Place{
		Locality:    "Almaty",
		DisplayName: "Almaty, Kazakhstan",
		Country:     "Kazakhstan",
		Latitude:    43.24,
		Longitude:   76.89,
	}}
	svc := NewService(gc, &stubOptionCache{})

	loc, err := svc.ResolveLocation(context.Background(), 43.238949, 76.889709)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Locality != "Almaty" {
		t.Fatalf("unexpected locality: got %s want Almaty", loc.Locality)
	}
	if !loc.SentGeolocation {
		t.Fatalf("expected SentGeolocation to be set")
	}
	if loc.Latitude != 43.238949 || loc.Longitude != 76.889709 {
		t.Fatalf("device coordinates must win over geocoder ones: %+v", loc)
	}
}

func TestResolveLocationRejectsBadCoordinates(t *testing.T) {
	svc := NewService(&stubGeocoder{}, &stubOptionCache{})

	if _, err := svc.ResolveLocation(context.Background(), 91, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrValidation)
	}
}

func TestResolveLocationNoLocality(t *testing.T) {
	gc := &stubGeocoder{reversePlace: geocode.Place{DisplayName: "Pacific Ocean"}}
	svc := NewService(gc, &stubOptionCache{})

	if _, err := svc.ResolveLocation(context.Background(), 0, -140); !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrCityNotFound)
	}
}

func TestSearchCityCachesOptions(t *testing.T) {
	gc := &stubGeocoder{searchPlaces: []geocode.Place{
		{Locality: "Moscow", Country: "Russia"},
		{Locality: "Moscow", State: "Idaho", Country: "United States"},
	}}
	cache := &stubOptionCache{nextTok: "tok-7"}
	svc := NewService(gc, cache)

	res, err := svc.SearchCity(context.Background(), "  Moscow ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gc.lastQuery != "Moscow" {
		t.Fatalf("query was not trimmed: %q", gc.lastQuery)
	}
	if res.Token != "tok-7" {
		t.Fatalf("unexpected token: %s", res.Token)
	}
	if len(res.Options) != 2 {
		t.Fatalf("unexpected option count: got %d want 2", len(res.Options))
	}
	if len(cache.stored["tok-7"]) != 2 {
		t.Fatalf("options were not cached")
	}
}

func TestSearchCityNotFound(t *testing.T) {
	svc := NewService(&stubGeocoder{}, &stubOptionCache{})

	if _, err := svc.SearchCity(context.Background(), "Xyzzy"); !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrCityNotFound)
	}
}

func TestPickOption(t *testing.T) {
	cache := &stubOptionCache{stored: map[string][]model.Location{
		"tok-1": {{Locality: "Paris", Country: "France"}, {Locality: "Paris", State: "Texas"}},
	}}
	svc := NewService(&stubGeocoder{}, cache)

	loc, err := svc.PickOption(context.Background(), "tok-1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.State != "Texas" {
		t.Fatalf("unexpected pick: %+v", loc)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "tok-1" {
		t.Fatalf("token was not consumed: %v", cache.deleted)
	}
}

func TestPickOptionExpired(t *testing.T) {
	cache := &stubOptionCache{getErr: fmt.Errorf("gone")}
	svc := NewService(&stubGeocoder{}, cache)

	if _, err := svc.PickOption(context.Background(), "tok-1", 0); !errors.Is(err, ErrOptionExpired) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrOptionExpired)
	}
}

func TestPickOptionOutOfRange(t *testing.T) {
	cache := &stubOptionCache{stored: map[string][]model.Location{"tok-1": {{Locality: "Oslo"}}}}
	svc := NewService(&stubGeocoder{}, cache)

	if _, err := svc.PickOption(context.Background(), "tok-1", 3); !errors.Is(err, ErrValidation) {
		t.Fatalf("unexpected error: got %v want %v", err, ErrValidation)
	}
}
