// Search providers
package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

// SearchProvider finds songs for a free-text query. An empty query yields no songs.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]models.Song, error)
}

// SearchURL returns the public results page for query.
func SearchURL(query string) string {
	return "https://youtube.com/results?search_query=" + url.QueryEscape(strings.TrimSpace(query))
}

// simulatedVariants are the canned results, one per song returned.
var simulatedVariants = []struct {
	format string
	artist string
}{
	{"%s - Original Mix", "Various Artists"},
	{"%s (Official Video)", "Popular Artist"},
	{"%s - Acoustic Version", "Independent Artist"},
	{"%s Remix", "DJ Producer"},
	{"%s Live Performance", "Band Name"},
}

// SimulatedSearch is a stand-in provider: it returns five made-up variants of the query and
// contacts nothing.
type SimulatedSearch struct {
	now func() time.Time
}

// NewSimulatedSearch creates a [SimulatedSearch].
func NewSimulatedSearch() *SimulatedSearch {
	return &SimulatedSearch{now: time.Now}
}

// Search returns the canned variants for query.
func (s *SimulatedSearch) Search(ctx context.Context, query string) ([]models.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Song{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stamp := s.now().UnixMilli()
	songs := make([]models.Song, 0, len(simulatedVariants))
	for i, v := range simulatedVariants {
		songs = append(songs, models.Song{
			ID:     fmt.Sprintf("song-%d-%d", stamp, i+1),
			Title:  fmt.Sprintf(v.format, query),
			Artist: v.artist,
			Source: "YouTube",
			URL:    "https://youtube.com/watch?v=" + videoID(),
		})
	}
	return songs, nil
}

func videoID() string {
	return strings.ReplaceAll(shared.GenerateID(), "-", "")[:11]
}

// IndexSearch searches songs the user already knows through an in-memory bleve index.
type IndexSearch struct {
	mu    sync.RWMutex
	index bleve.Index
	limit int
}

// NewIndexSearch creates an empty in-memory index returning at most limit songs per query.
func NewIndexSearch(limit int) (*IndexSearch, error) {
	if limit <= 0 {
		limit = 10
	}

	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &IndexSearch{index: index, limit: limit}, nil
}

// Index adds songs to the index. Songs are keyed by id, so re-indexing a song replaces it.
func (s *IndexSearch) Index(songs ...models.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	for _, song := range songs {
		if song.ID == "" {
			continue
		}
		doc := map[string]any{
			"title":  song.Title,
			"artist": song.Artist,
			"source": song.Source,
			"url":    song.URL,
		}
		if err := batch.Index(song.ID, doc); err != nil {
			return fmt.Errorf("failed to index song %s: %w", song.ID, err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index songs: %w", err)
	}
	return nil
}

// Count returns the number of indexed songs.
func (s *IndexSearch) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.index.DocCount()
	return int(n), err
}

// Search matches query against titles and artists, best match first.
func (s *IndexSearch) Search(ctx context.Context, query string) ([]models.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Song{}, nil
	}

	title := bleve.NewMatchQuery(query)
	title.SetField("title")
	title.SetFuzziness(1)
	artist := bleve.NewMatchQuery(query)
	artist.SetField("artist")
	artist.SetFuzziness(1)
	prefix := bleve.NewPrefixQuery(strings.ToLower(lastTerm(query)))
	prefix.SetField("title")

	q := bleve.NewBooleanQuery()
	q.AddShould(title, artist, prefix)

	req := bleve.NewSearchRequest(q)
	req.Size = s.limit
	req.Fields = []string{"*"}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	songs := make([]models.Song, 0, len(res.Hits))
	for _, hit := range res.Hits {
		str := func(f string) string {
			v, _ := hit.Fields[f].(string)
			return v
		}
		songs = append(songs, models.Song{
			ID:     hit.ID,
			Title:  str("title"),
			Artist: str("artist"),
			Source: str("source"),
			URL:    str("url"),
		})
	}
	return songs, nil
}

// Close releases the index.
func (s *IndexSearch) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

func lastTerm(query string) string {
	fields := strings.Fields(query)
	return fields[len(fields)-1]
}
