package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/joshua-takyi/rolecerto/internal/models"
)

// ErrNoResults carries the message shown when a lookup finds nothing.
var ErrNoResults = errors.New("Endereço não encontrado. Tente ser mais específico.")

const maxResults = 5

// Place is a resolved address.
type Place struct {
	DisplayName string             `json:"display_name"`
	Street      string             `json:"street"`
	City        string             `json:"city"`
	State       string             `json:"state"`
	Coordinates models.Coordinates `json:"coordinates"`
}

// Client talks to a Nominatim-compatible geocoder and caches answers.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *lru.Cache[string, []Place]
}

func NewClient(baseURL, userAgent string, cacheSize int) (*Client, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[string, []Place](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode cache: %w", err)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
	}, nil
}

type nominatimAddress struct {
	Road         string `json:"road"`
	HouseNumber  string `json:"house_number"`
	Suburb       string `json:"suburb"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
}

type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

func (p nominatimPlace) toPlace() (Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}

	a := p.Address
	street := a.Road
	if street != "" && a.HouseNumber != "" {
		street += ", " + a.HouseNumber
	}
	if street != "" && a.Suburb != "" {
		street += " - " + a.Suburb
	}

	city := a.City
	for _, alt := range []string{a.Town, a.Village, a.Municipality} {
		if city == "" {
			city = alt
		}
	}

	return Place{
		DisplayName: p.DisplayName,
		Street:      street,
		City:        city,
		State:       a.State,
		Coordinates: models.Coordinates{Latitude: lat, Longitude: lng},
	}, nil
}

// Search resolves free text to up to five Brazilian addresses, best match first.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}
	key := "q:" + strings.ToLower(query)
	if places, ok := c.cache.Get(key); ok {
		return places, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("countrycodes", "br")
	params.Set("limit", strconv.Itoa(maxResults))

	var raw []nominatimPlace
	if err := c.get(ctx, "/search", params, &raw); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		p, err := r.toPlace()
		if err != nil {
			continue
		}
		places = append(places, p)
	}
	if len(places) == 0 {
		return nil, ErrNoResults
	}

	c.cache.Add(key, places)
	return places, nil
}

// Reverse resolves a coordinate to the nearest address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	key := fmt.Sprintf("r:%.6f,%.6f", lat, lng)
	if places, ok := c.cache.Get(key); ok {
		return &places[0], nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var raw nominatimPlace
	if err := c.get(ctx, "/reverse", params, &raw); err != nil {
		return nil, err
	}
	if raw.Error != "" {
		return nil, ErrNoResults
	}

	p, err := raw.toPlace()
	if err != nil {
		return nil, ErrNoResults
	}

	c.cache.Add(key, []Place{p})
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "pt-BR")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("geocoder error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("JSON decode error: %w", err)
	}
	return nil
}
