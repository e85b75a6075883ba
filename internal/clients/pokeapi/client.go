// Package pokeapi fetches catalog metadata for entries from the public
// reference API. Results are cached (redis when configured, otherwise an
// in-process map) because the same ids recur across jobs.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
)

const (
	defaultBaseURL = "https://pokeapi.co/api/v2"
	cacheTTL       = 24 * time.Hour
)

// Details is the metadata block handed to the summary prompt.
type Details struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Genus      string   `json:"genus"`
	FlavorText string   `json:"flavor_text"`
	Habitat    string   `json:"habitat"`
	Types      []string `json:"types"`
}

type Client interface {
	GetDetails(ctx context.Context, id int) (*Details, error)
	// DownloadSprites saves official artwork for each id into dir as
	// <id>.png, skipping files that already exist.
	DownloadSprites(ctx context.Context, ids []int, dir string) error
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client

	rdb *goredis.Client

	mu    sync.RWMutex
	cache map[int]*Details
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	clog := log.With("service", "PokeAPIClient")

	baseURL := strings.TrimSpace(os.Getenv("POKEAPI_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	c := &client{
		log:        clog,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      map[int]*Details{},
	}

	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        addr,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			clog.Warn("Redis unavailable, using in-process cache only", "addr", addr, "error", err)
			_ = rdb.Close()
		} else {
			c.rdb = rdb
		}
	}

	return c, nil
}

func cacheKey(id int) string { return fmt.Sprintf("pokeapi:details:%d", id) }

func (c *client) GetDetails(ctx context.Context, id int) (*Details, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid catalog id %d", id)
	}

	c.mu.RLock()
	if d, ok := c.cache[id]; ok {
		c.mu.RUnlock()
		return d, nil
	}
	c.mu.RUnlock()

	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cacheKey(id)).Bytes(); err == nil {
			var d Details
			if err := json.Unmarshal(raw, &d); err == nil {
				c.storeLocal(&d)
				return &d, nil
			}
		}
	}

	d, err := c.fetchDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	c.storeLocal(d)
	if c.rdb != nil {
		if raw, err := json.Marshal(d); err == nil {
			if err := c.rdb.Set(ctx, cacheKey(id), raw, cacheTTL).Err(); err != nil {
				c.log.Warn("Redis cache write failed", "id", id, "error", err)
			}
		}
	}
	return d, nil
}

func (c *client) storeLocal(d *Details) {
	c.mu.Lock()
	c.cache[d.ID] = d
	c.mu.Unlock()
}

// ---- reference API response shapes (only the fields we read) ----

type speciesResponse struct {
	Name   string `json:"name"`
	Genera []struct {
		Genus    string `json:"genus"`
		Language struct {
			Name string `json:"name"`
		} `json:"language"`
	} `json:"genera"`
	FlavorTextEntries []struct {
		FlavorText string `json:"flavor_text"`
		Language   struct {
			Name string `json:"name"`
		} `json:"language"`
	} `json:"flavor_text_entries"`
	Habitat *struct {
		Name string `json:"name"`
	} `json:"habitat"`
}

type pokemonResponse struct {
	Types []struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Sprites struct {
		Other struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
}

func (c *client) fetchDetails(ctx context.Context, id int) (*Details, error) {
	var species speciesResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/pokemon-species/%d", id), &species); err != nil {
		return nil, fmt.Errorf("fetch species %d: %w", id, err)
	}
	var pokemon pokemonResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/pokemon/%d", id), &pokemon); err != nil {
		return nil, fmt.Errorf("fetch pokemon %d: %w", id, err)
	}

	d := &Details{ID: id, Name: species.Name}
	for _, g := range species.Genera {
		if g.Language.Name == "en" {
			d.Genus = g.Genus
			break
		}
	}
	for _, f := range species.FlavorTextEntries {
		if f.Language.Name == "en" {
			// Flavor text carries form feeds and hard wraps from the games.
			d.FlavorText = strings.Join(strings.Fields(f.FlavorText), " ")
			break
		}
	}
	if species.Habitat != nil {
		d.Habitat = species.Habitat.Name
	}
	for _, t := range pokemon.Types {
		d.Types = append(d.Types, t.Type.Name)
	}
	return d, nil
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pokeapi http %d: %s", resp.StatusCode, string(raw))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
