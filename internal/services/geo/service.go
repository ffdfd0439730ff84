package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/moonssword/dating-bot/internal/domain/model"
	"github.com/moonssword/dating-bot/internal/infra/geocode"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrCityNotFound  = errors.New("city not found")
	ErrOptionExpired = errors.New("city option expired")
)

const maxCityOptions = 5

type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (geocode.Place, error)
	Search(ctx context.Context, query string, limit int) ([]geocode.Place, error)
}

// OptionCache parks search results between the options prompt and the
// user's pick.
type OptionCache interface {
	Put(ctx context.Context, options []model.Location) (string, error)
	Get(ctx context.Context, token string) ([]model.Location, error)
	Delete(ctx context.Context, token string) error
}

type Service struct {
	geocoder Geocoder
	options  OptionCache
}

func NewService(geocoder Geocoder, options OptionCache) *Service {
	return &Service{geocoder: geocoder, options: options}
}

// ResolveLocation turns shared device coordinates into a profile location.
func (s *Service) ResolveLocation(ctx context.Context, lat, lon float64) (model.Location, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return model.Location{}, err
	}

	place, err := s.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		return model.Location{}, fmt.Errorf("reverse geocode: %w", err)
	}
	if place.Locality == "" {
		return model.Location{}, ErrCityNotFound
	}

	loc := placeToLocation(place)
	loc.Latitude = lat
	loc.Longitude = lon
	loc.SentGeolocation = true
	return loc, nil
}

// CityOptions holds candidate matches for a typed city name and the
// cache token to reference them from inline keyboard callbacks.
type CityOptions struct {
	Token   string
	Options []model.Location
}

// SearchCity looks up a typed city name. Single-match queries still go
// through the options cache so the pick flow is uniform.
func (s *Service) SearchCity(ctx context.Context, query string) (CityOptions, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return CityOptions{}, fmt.Errorf("empty city query: %w", ErrValidation)
	}

	places, err := s.geocoder.Search(ctx, query, maxCityOptions)
	if err != nil {
		return CityOptions{}, fmt.Errorf("search city: %w", err)
	}
	if len(places) == 0 {
		return CityOptions{}, ErrCityNotFound
	}

	options := make([]model.Location, 0, len(places))
	for _, place := range places {
		options = append(options, placeToLocation(place))
	}

	token, err := s.options.Put(ctx, options)
	if err != nil {
		return CityOptions{}, fmt.Errorf("cache city options: %w", err)
	}
	return CityOptions{Token: token, Options: options}, nil
}

// PickOption resolves an option index from a previously cached search.
func (s *Service) PickOption(ctx context.Context, token string, index int) (model.Location, error) {
	options, err := s.options.Get(ctx, token)
	if err != nil {
		return model.Location{}, ErrOptionExpired
	}
	if index < 0 || index >= len(options) {
		return model.Location{}, fmt.Errorf("option index %d out of range: %w", index, ErrValidation)
	}

	picked := options[index]
	_ = s.options.Delete(ctx, token)
	return picked, nil
}

func placeToLocation(place geocode.Place) model.Location {
	return model.Location{
		Locality:    place.Locality,
		DisplayName: place.DisplayName,
		State:       place.State,
		Country:     place.Country,
		Latitude:    place.Latitude,
		Longitude:   place.Longitude,
	}
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("coordinates are NaN: %w", ErrValidation)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}
	return nil
}
