package vimeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = time.Hour

type Client struct {
	token   string
	baseURL string
	http    *http.Client
	rdb     *redis.Client
}

func NewClient(token, baseURL string, rdb *redis.Client) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		rdb:     rdb,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type videoResponse struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"` // seconds
	Pictures struct {
		Sizes []struct {
			Width int    `json:"width"`
			Link  string `json:"link"`
		} `json:"sizes"`
	} `json:"pictures"`
}

// GetVideo fetches metadata for one video, serving from the redis cache
// when possible. Cache failures are logged and treated as misses.
func (c *Client) GetVideo(ctx context.Context, id string) (VideoRef, error) {
	if id == "" {
		return VideoRef{}, ErrMissingVideoID
	}

	key := "vimeo:video:" + id
	if c.rdb != nil {
		if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
			var ref VideoRef
			if err := json.Unmarshal([]byte(cached), &ref); err == nil {
				return ref, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("vimeo: cache get: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/"+id, nil)
	if err != nil {
		return VideoRef{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.vimeo.*+json;version=3.4")

	resp, err := c.http.Do(req)
	if err != nil {
		return VideoRef{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return VideoRef{}, ErrVideoNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return VideoRef{}, fmt.Errorf("vimeo status %d", resp.StatusCode)
	}

	var body videoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return VideoRef{}, err
	}

	// Largest available thumbnail.
	thumb := ""
	best := 0
	for _, size := range body.Pictures.Sizes {
		if size.Width > best {
			best = size.Width
			thumb = size.Link
		}
	}

	ref := VideoRef{
		VimeoID:      id,
		Title:        body.Name,
		ThumbnailURL: thumb,
		DurationMs:   body.Duration * 1000,
	}

	if c.rdb != nil {
		if b, err := json.Marshal(ref); err == nil {
			if err := c.rdb.Set(ctx, key, b, cacheTTL).Err(); err != nil {
				log.Printf("vimeo: cache set: %v", err)
			}
		}
	}
	return ref, nil
}

var ErrVideoNotFound = errors.New("vimeo: video not found")
