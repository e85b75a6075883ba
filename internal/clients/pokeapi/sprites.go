package pokeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const spriteConcurrency = 4

func (c *client) DownloadSprites(ctx context.Context, ids []int, dir string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sprite dir: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(spriteConcurrency)

	for _, id := range ids {
		id := id
		dest := filepath.Join(dir, fmt.Sprintf("%d.png", id))
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		g.Go(func() error {
			var pokemon pokemonResponse
			if err := c.getJSON(gctx, fmt.Sprintf("/pokemon/%d", id), &pokemon); err != nil {
				return err
			}
			url := pokemon.Sprites.Other.OfficialArtwork.FrontDefault
			if url == "" {
				c.log.Warn("No official artwork for entry", "id", id)
				return nil
			}
			return c.downloadFile(gctx, url, dest)
		})
	}

	return g.Wait()
}

func (c *client) downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sprite download http %d: %s", resp.StatusCode, url)
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
