package gyms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/go-climb-client/httpclient"
)

// Gym is a climbing gym as returned by the discovery endpoints.
type Gym struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  float64  `json:"latitude,omitempty"`
	Longitude float64  `json:"longitude,omitempty"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// CongestionLevel is the coarse crowding bucket the app displays.
type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "low"
	CongestionMedium CongestionLevel = "medium"
	CongestionHigh   CongestionLevel = "high"
)

// HourlyCongestion is one point of a gym's crowding series.
type HourlyCongestion struct {
	Hour  int             `json:"hour"` // 0-23, local to the gym
	Level CongestionLevel `json:"level"`
}

// Congestion is the crowding snapshot for a gym.
type Congestion struct {
	GymID     string             `json:"gymId"`
	Level     CongestionLevel    `json:"level"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Hourly    []HourlyCongestion `json:"hourly,omitempty"`
}

// Filter narrows gym listings.
type Filter struct {
	Region string
	Tag    string
	Page   int
	Size   int
}

func (f Filter) query() string {
	q := url.Values{}
	if f.Region != "" {
		q.Set("region", f.Region)
	}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 {
		q.Set("size", strconv.Itoa(f.Size))
	}
	return q.Encode()
}

// Service is the typed wrapper over the gym discovery and crowding
// endpoints.
type Service struct {
	client *httpclient.Client
}

// NewService initializes a gym Service.
func NewService(client *httpclient.Client) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("[gyms NewService] client is required")
	}
	return &Service{client: client}, nil
}

// List returns gyms matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Gym, error) {
	path := "/gyms"
	if q := filter.query(); q != "" {
		path += "?" + q
	}
	var out []Gym
	if err := s.client.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("listing gyms: %w", err)
	}
	return out, nil
}

// Get returns a single gym.
func (s *Service) Get(ctx context.Context, gymID string) (*Gym, error) {
	var out Gym
	if err := s.client.Get(ctx, "/gyms/"+url.PathEscape(gymID), &out); err != nil {
		return nil, fmt.Errorf("fetching gym %s: %w", gymID, err)
	}
	return &out, nil
}

// Search returns gyms matching a free-text query.
func (s *Service) Search(ctx context.Context, query string) ([]Gym, error) {
	q := url.Values{}
	q.Set("q", query)
	var out []Gym
	if err := s.client.Get(ctx, "/gyms/search?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("searching gyms: %w", err)
	}
	return out, nil
}

// Congestion returns the current crowding snapshot for a gym.
func (s *Service) Congestion(ctx context.Context, gymID string) (*Congestion, error) {
	var out Congestion
	if err := s.client.Get(ctx, "/gyms/"+url.PathEscape(gymID)+"/congestion", &out); err != nil {
		return nil, fmt.Errorf("fetching congestion for gym %s: %w", gymID, err)
	}
	return &out, nil
}

// ReportCongestion submits a user-observed crowding level for a gym.
func (s *Service) ReportCongestion(ctx context.Context, gymID string, level CongestionLevel) error {
	body := struct {
		Level CongestionLevel `json:"level"`
	}{Level: level}
	if err := s.client.Post(ctx, "/gyms/"+url.PathEscape(gymID)+"/congestion", body, nil); err != nil {
		return fmt.Errorf("reporting congestion for gym %s: %w", gymID, err)
	}
	return nil
}
