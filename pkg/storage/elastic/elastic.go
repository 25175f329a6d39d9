// Package elastic persists the ledger as one Elasticsearch document per player.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/ledger"
	"github.com/fadedpez/scrapstats/pkg/storage"
)

// Config holds configuration options for the Elasticsearch backend
type Config struct {
	URL      string
	Username string
	Password string
	Index    string
	PageSize int // Hits per search page when loading
	Logger   *logging.Logger
	Now      func() time.Time
}

// DefaultConfig returns a default configuration for Elasticsearch
func DefaultConfig() *Config {
	return &Config{
		URL:      "http://localhost:9200",
		Index:    "gambling_stats",
		PageSize: 1000,
		Logger:   logging.Default,
		Now:      time.Now,
	}
}

const indexMapping = `{
	"mappings": {
		"properties": {
			"player_id": { "type": "keyword" },
			"scrap_spent": { "type": "long" },
			"scrap_lost": { "type": "long" },
			"scrap_earned": { "type": "long" },
			"updated_at": { "type": "date" }
		}
	}
}`

// document is the stored shape of one player's counters
type document struct {
	PlayerID    string    `json:"player_id"`
	ScrapSpent  int64     `json:"scrap_spent"`
	ScrapLost   int64     `json:"scrap_lost"`
	ScrapEarned int64     `json:"scrap_earned"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string        `json:"_id"`
			Source document      `json:"_source"`
			Sort   []interface{} `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool                         `json:"errors"`
	Items  []map[string]bulkItemOutcome `json:"items"`
}

type bulkItemOutcome struct {
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// Repository implements storage.Backend using Elasticsearch
type Repository struct {
	client *elasticsearch.Client
	config *Config
	logger *logging.Logger
}

var _ storage.Backend = (*Repository)(nil)

// New creates a new Elasticsearch backend. No request is made until InitSchema.
func New(config *Config) (*Repository, error) {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.URL == "" {
		config.URL = defaults.URL
	}
	if config.Index == "" {
		config.Index = defaults.Index
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}

	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}

	// Add authentication if provided
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, types.WrapError(types.ErrPersistenceConnect, "error creating Elasticsearch client", err)
	}

	return &Repository{
		client: client,
		config: config,
		logger: config.Logger.Named(storage.MethodElasticsearch),
	}, nil
}

// Name implements storage.Backend
func (r *Repository) Name() string {
	return storage.MethodElasticsearch
}

// Index returns the index documents are stored in
func (r *Repository) Index() string {
	return r.config.Index
}

// InitSchema creates the stats index if it doesn't exist
func (r *Repository) InitSchema(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.config.Index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "error checking if stats index exists", err)
	}
	res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
		return nil
	case res.StatusCode != http.StatusNotFound:
		return types.NewStatsError(types.ErrPersistenceConnect, fmt.Sprintf("unexpected status checking index: %s", res.Status()))
	}

	req := esapi.IndicesCreateRequest{
		Index: r.config.Index,
		Body:  strings.NewReader(indexMapping),
	}
	res, err = req.Do(ctx, r.client)
	if err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "error creating stats index", err)
	}
	defer res.Body.Close()

	// Another instance may have created it in the meantime
	if res.IsError() && !strings.Contains(readBody(res), "resource_already_exists_exception") {
		return types.NewStatsError(types.ErrPersistenceConnect, fmt.Sprintf("error creating stats index: %s", res.Status()))
	}

	r.logger.Info("Created index %s", r.config.Index)
	return nil
}

// Load pages through every document sorted by player id
func (r *Repository) Load(ctx context.Context) ([]ledger.Entry, error) {
	entries := []ledger.Entry{}
	var after []interface{}

	for {
		query := map[string]interface{}{
			"size":             r.config.PageSize,
			"sort":             []interface{}{map[string]string{"player_id": "asc"}},
			"query":            map[string]interface{}{"match_all": map[string]interface{}{}},
			"track_total_hits": false,
		}
		if after != nil {
			query["search_after"] = after
		}

		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(query); err != nil {
			return nil, types.WrapError(types.ErrInternalError, "error encoding search query", err)
		}

		res, err := r.client.Search(
			r.client.Search.WithContext(ctx),
			r.client.Search.WithIndex(r.config.Index),
			r.client.Search.WithBody(&buf),
		)
		if err != nil {
			return nil, types.WrapError(types.ErrPersistenceConnect, "error searching stats index", err)
		}

		if res.StatusCode == http.StatusNotFound {
			res.Body.Close()
			return entries, nil
		}
		if res.IsError() {
			status := res.Status()
			res.Body.Close()
			return nil, types.NewStatsError(types.ErrPersistenceConnect, fmt.Sprintf("error searching stats index: %s", status))
		}

		var page searchResponse
		err = json.NewDecoder(res.Body).Decode(&page)
		res.Body.Close()
		if err != nil {
			return nil, types.WrapError(types.ErrPersistenceConnect, "error decoding search response", err)
		}

		for _, hit := range page.Hits.Hits {
			id := hit.Source.PlayerID
			if id == "" {
				id = hit.ID
			}
			e := ledger.Entry{PlayerID: id}
			e.Stats.ScrapSpent = hit.Source.ScrapSpent
			e.Stats.ScrapLost = hit.Source.ScrapLost
			e.Stats.ScrapEarned = hit.Source.ScrapEarned
			entries = append(entries, e)
		}

		hits := page.Hits.Hits
		if len(hits) < r.config.PageSize {
			break
		}
		after = hits[len(hits)-1].Sort
		if after == nil {
			after = []interface{}{hits[len(hits)-1].Source.PlayerID}
		}
	}

	r.logger.Info("Loaded %d players from %s", len(entries), r.config.Index)
	return entries, nil
}

// Flush sends one bulk request deleting removed players and indexing every entry
func (r *Repository) Flush(ctx context.Context, snapshot ledger.Snapshot) error {
	if len(snapshot.Entries) == 0 && len(snapshot.Removed) == 0 {
		return nil
	}

	body, err := r.bulkBody(snapshot)
	if err != nil {
		return types.WrapError(types.ErrInternalError, "error encoding bulk request", err)
	}

	res, err := r.client.Bulk(
		bytes.NewReader(body),
		r.client.Bulk.WithContext(ctx),
		r.client.Bulk.WithIndex(r.config.Index),
		r.client.Bulk.WithRefresh("wait_for"),
	)
	if err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "error sending bulk request", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return types.NewStatsError(types.ErrPersistenceConnect, fmt.Sprintf("bulk request failed: %s", res.Status()))
	}

	var outcome bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&outcome); err != nil {
		return types.WrapError(types.ErrPersistenceConnect, "error decoding bulk response", err)
	}
	if outcome.Errors {
		if failed := failedItems(outcome); len(failed) > 0 {
			return types.NewStatsError(types.ErrPersistenceConnect,
				fmt.Sprintf("bulk request failed for %d documents: %s", len(failed), strings.Join(failed, ", ")))
		}
	}

	r.logger.Debug("Flushed %d players, deleted %d", len(snapshot.Entries), len(snapshot.Removed))
	return nil
}

// Close implements storage.Backend
func (r *Repository) Close() error {
	return nil
}

// Helper functions

func (r *Repository) bulkBody(snapshot ledger.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	now := r.config.Now().UTC()

	for _, id := range snapshot.Removed {
		if err := enc.Encode(map[string]interface{}{"delete": map[string]string{"_id": id}}); err != nil {
			return nil, err
		}
	}
	for _, e := range snapshot.Entries {
		if err := enc.Encode(map[string]interface{}{"index": map[string]string{"_id": e.PlayerID}}); err != nil {
			return nil, err
		}
		doc := document{
			PlayerID:    e.PlayerID,
			ScrapSpent:  e.Stats.ScrapSpent,
			ScrapLost:   e.Stats.ScrapLost,
			ScrapEarned: e.Stats.ScrapEarned,
			UpdatedAt:   now,
		}
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// failedItems lists item ids that failed; deleting an absent document is not a failure
func failedItems(outcome bulkResponse) []string {
	var failed []string
	for _, item := range outcome.Items {
		for action, result := range item {
			if result.Status < 300 {
				continue
			}
			if action == "delete" && result.Status == http.StatusNotFound {
				continue
			}
			failed = append(failed, fmt.Sprintf("%s %s (%d)", action, result.ID, result.Status))
		}
	}
	return failed
}

func readBody(res *esapi.Response) string {
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return ""
	}
	return string(data)
}
