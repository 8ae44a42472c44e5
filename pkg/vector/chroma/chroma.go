// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/chatvault/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing chatvault embeddings.
	DefaultCollectionName = "chatvault"

	// namespaceKey is the metadata key carrying an entry's namespace.
	namespaceKey = "_namespace"

	DefaultMaxRetries    = 5
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultMaxRetryDelay = 5 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// MaxRetries is the number of attempts made to resolve the collection.
	// Defaults to DefaultMaxRetries.
	MaxRetries int

	// RetryDelay is the initial delay between attempts, doubled each time.
	// Defaults to DefaultRetryDelay.
	RetryDelay time.Duration

	// MaxRetryDelay caps the delay between attempts.
	// Defaults to DefaultMaxRetryDelay.
	MaxRetryDelay time.Duration
}

// NewDriver creates a new Chroma vector driver. Resolving the collection is
// retried with exponential backoff so the driver can start alongside Chroma.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	collectionID, err := d.resolveCollection(context.Background(), c)
	if err != nil {
		return nil, err
	}
	d.collectionID = collectionID

	logger.Info("connected to Chroma",
		"url", c.URL,
		"collection", collectionName,
		"collection_id", collectionID,
	)

	return d, nil
}

// resolveCollection calls getOrCreateCollection until it succeeds or the
// retry budget is spent.
func (d *Driver) resolveCollection(ctx context.Context, c Config) (string, error) {
	attempts := c.MaxRetries
	if attempts <= 0 {
		attempts = DefaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		id, err := d.getOrCreateCollection(ctx)
		if err == nil {
			return id, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		d.logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}

	return "", fmt.Errorf("%w: getting or creating collection %q after %d attempts: %w",
		vector.ErrConnection, d.collectionName, attempts, lastErr)
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	// Try to get existing collection first
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+collectionsPath+"/"+d.collectionName, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it
	var collection chromaCollection
	if err := d.post(ctx, collectionsPath, map[string]string{"name": d.collectionName}, &collection); err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}

	return collection.ID, nil
}

// post sends a JSON request to path and decodes a JSON response into out
// when out is non-nil.
func (d *Driver) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (d *Driver) recordsPath(op string) string {
	return collectionsPath + "/" + d.collectionID + "/" + op
}

// toChromaMetadata flattens entry metadata and namespace into Chroma metadata.
func toChromaMetadata(metadata map[string]string, namespace string) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out[namespaceKey] = namespace
	return out
}

// fromChromaMetadata splits Chroma metadata back into entry metadata and namespace.
func fromChromaMetadata(m map[string]any) (map[string]string, string) {
	metadata := make(map[string]string, len(m))
	namespace := ""
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if k == namespaceKey {
			namespace = s
			continue
		}
		metadata[k] = s
	}
	return metadata, namespace
}

// whereClause builds a Chroma where filter from search params.
func whereClause(params vector.SearchParams) map[string]any {
	var conds []map[string]any
	if params.Namespace != "" {
		conds = append(conds, map[string]any{namespaceKey: map[string]any{"$eq": params.Namespace}})
	}
	for k, v := range params.Filter {
		conds = append(conds, map[string]any{k: map[string]any{"$eq": v}})
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		and := make([]any, len(conds))
		for i, c := range conds {
			and[i] = c
		}
		return map[string]any{"$and": and}
	}
}

// Store upserts entries with their embeddings.
func (d *Driver) Store(ctx context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	reqBody := chromaUpsertRequest{
		IDs:        make([]string, len(entries)),
		Embeddings: make([][]float32, len(entries)),
		Metadatas:  make([]map[string]any, len(entries)),
	}
	for i, entry := range entries {
		reqBody.IDs[i] = entry.ID
		reqBody.Embeddings[i] = entry.Values
		reqBody.Metadatas[i] = toChromaMetadata(entry.Metadata, entry.Namespace)
	}

	if err := d.post(ctx, d.recordsPath("upsert"), reqBody, nil); err != nil {
		return fmt.Errorf("failed to upsert entries: %w", err)
	}

	d.logger.Debug("stored entries in chroma", "count", len(entries))
	return nil
}

// Search finds the most similar entries to the query vector.
func (d *Driver) Search(ctx context.Context, params vector.SearchParams) ([]vector.Result, error) {
	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{params.Vector},
		NResults:        params.Limit(),
		Where:           whereClause(params),
		Include:         []string{"metadatas", "distances", "embeddings"},
	}

	var queryResp chromaQueryResponse
	if err := d.post(ctx, d.recordsPath("query"), reqBody, &queryResp); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	results := []vector.Result{}

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]

	var distances []float32
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}

	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}

	var embeddings [][]float32
	if len(queryResp.Embeddings) > 0 {
		embeddings = queryResp.Embeddings[0]
	}

	for i, id := range ids {
		result := vector.Result{Entry: vector.Entry{ID: id, Metadata: map[string]string{}}}

		if i < len(metadatas) && metadatas[i] != nil {
			result.Metadata, result.Namespace = fromChromaMetadata(metadatas[i])
		}

		if i < len(embeddings) {
			result.Values = embeddings[i]
		}

		// Lower distance = higher similarity
		if i < len(distances) {
			result.Score = 1.0 / (1.0 + distances[i])
		}

		results = append(results, result)
	}

	d.logger.Debug("queried chroma", "results", len(results))
	return results, nil
}

// Get retrieves entries by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	reqBody := chromaGetRequest{
		IDs:     ids,
		Include: []string{"metadatas", "embeddings"},
	}

	var getResp chromaGetResponse
	if err := d.post(ctx, d.recordsPath("get"), reqBody, &getResp); err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	entries := make([]vector.Entry, len(getResp.IDs))
	for i, id := range getResp.IDs {
		entries[i] = vector.Entry{ID: id, Metadata: map[string]string{}}

		if i < len(getResp.Metadatas) && getResp.Metadatas[i] != nil {
			entries[i].Metadata, entries[i].Namespace = fromChromaMetadata(getResp.Metadatas[i])
		}

		if i < len(getResp.Embeddings) {
			entries[i].Values = getResp.Embeddings[i]
		}
	}

	return entries, nil
}

// Delete removes entries by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := d.post(ctx, d.recordsPath("delete"), chromaDeleteRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}

	d.logger.Debug("deleted entries from chroma", "count", len(ids))
	return nil
}

// UpdateMetadata merges metadata into an existing entry.
func (d *Driver) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error {
	existing, err := d.Get(ctx, []string{id})
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return fmt.Errorf("%w: %s", vector.ErrNotFound, id)
	}

	merged := vector.MergeMetadata(existing[0].Metadata, metadata)
	reqBody := chromaUpsertRequest{
		IDs:       []string{id},
		Metadatas: []map[string]any{toChromaMetadata(merged, existing[0].Namespace)},
	}

	if err := d.post(ctx, d.recordsPath("update"), reqBody, nil); err != nil {
		return fmt.Errorf("failed to update metadata for %s: %w", id, err)
	}

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ vector.Driver = (*Driver)(nil)
