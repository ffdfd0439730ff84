package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client talks to a Nominatim-compatible geocoding endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Place struct {
	Locality    string
	DisplayName string
	State       string
	Country     string
	Latitude    float64
	Longitude   float64
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

func (r nominatimResult) toPlace() Place {
	locality := r.Address.City
	if locality == "" {
		locality = r.Address.Town
	}
	if locality == "" {
		locality = r.Address.Village
	}

	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lon, _ := strconv.ParseFloat(r.Lon, 64)

	return Place{
		Locality:    locality,
		DisplayName: r.DisplayName,
		State:       r.Address.State,
		Country:     r.Address.Country,
		Latitude:    lat,
		Longitude:   lon,
	}
}

// Reverse resolves coordinates into the nearest named place.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("accept-language", "en")

	var result nominatimResult
	if err := c.get(ctx, "/reverse", q, &result); err != nil {
		return Place{}, err
	}

	place := result.toPlace()
	if place.Locality == "" && place.DisplayName == "" {
		return Place{}, fmt.Errorf("reverse geocode: empty result for %f,%f", lat, lon)
	}
	return place, nil
}

// Search returns candidate places for a free-form city name, most
// relevant first.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search geocode: empty query")
	}
	if limit <= 0 {
		limit = 5
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", strings.TrimSpace(query))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("addressdetails", "1")
	q.Set("accept-language", "en")

	var results []nominatimResult
	if err := c.get(ctx, "/search", q, &results); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		place := r.toPlace()
		if place.Locality == "" {
			continue
		}
		places = append(places, place)
	}
	return places, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "dating-bot/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call geocode service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected geocode status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geocode response: %w", err)
	}
	return nil
}
