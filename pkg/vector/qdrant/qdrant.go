// Package qdrant provides a vector.Driver backed by Qdrant over gRPC.
//
// Qdrant point ids must be unsigned integers or UUIDs, so entry ids are mapped
// to name-based UUIDs and the original id is kept in the payload.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	qc "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/chatvault/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for chatvault embeddings.
	DefaultCollectionName = "chatvault"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	// DefaultTimeout bounds each gRPC call.
	DefaultTimeout = 30 * time.Second

	idKey        = "entry_id"
	namespaceKey = "_namespace"
)

// pointNamespace seeds the name-based UUIDs derived from entry ids.
var pointNamespace = uuid.MustParse("6f1c7a52-1b7e-4a0d-9d7b-3f5c2a9e8b41")

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the Qdrant gRPC address, "host" or "host:port".
	Target string

	// APIKey is sent with every request when set.
	APIKey string

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions is required to create the collection when it does not exist.
	Dimensions uint

	// Timeout bounds each call. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Driver implements vector.Driver using the Qdrant gRPC client.
type Driver struct {
	client     *qc.Client
	collection string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewDriver connects to Qdrant and ensures the collection exists, creating it
// with cosine distance when missing.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Target == "" {
		return nil, errors.New("qdrant target is required")
	}

	host, port, err := splitTarget(c.Target)
	if err != nil {
		return nil, err
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := qc.NewClient(&qc.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, collection, err)
	}

	if !exists {
		if c.Dimensions == 0 {
			client.Close()
			return nil, fmt.Errorf("qdrant collection %q does not exist and dimensions are not configured", collection)
		}

		if err := client.CreateCollection(ctx, &qc.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qc.Distance_Cosine,
			}),
		}); err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to Qdrant",
		"target", c.Target,
		"collection", collection,
		"created", !exists,
	)

	return &Driver{
		client:     client,
		collection: collection,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// callContext bounds a single gRPC call with the driver timeout.
func (d *Driver) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.timeout)
}

func splitTarget(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// No port given.
		return target, DefaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

// PointID returns the Qdrant point id for an entry id.
func PointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

func pointIDs(ids []string) []*qc.PointId {
	out := make([]*qc.PointId, len(ids))
	for i, id := range ids {
		out[i] = qc.NewIDUUID(PointID(id))
	}
	return out
}

func toPayload(id string, metadata map[string]string, namespace string) map[string]*qc.Value {
	payload := make(map[string]*qc.Value, len(metadata)+2)
	for k, v := range metadata {
		payload[k] = qc.NewValueString(v)
	}
	payload[idKey] = qc.NewValueString(id)
	payload[namespaceKey] = qc.NewValueString(namespace)
	return payload
}

func fromPayload(payload map[string]*qc.Value) vector.Entry {
	entry := vector.Entry{Metadata: make(map[string]string, len(payload))}
	for k, v := range payload {
		switch k {
		case idKey:
			entry.ID = v.GetStringValue()
		case namespaceKey:
			entry.Namespace = v.GetStringValue()
		default:
			entry.Metadata[k] = v.GetStringValue()
		}
	}
	return entry
}

func denseValues(v *qc.VectorsOutput) []float32 {
	out := v.GetVector()
	if out == nil {
		return nil
	}
	if dense := out.GetDense(); dense != nil {
		return dense.GetData()
	}
	return out.GetData()
}

func filterFor(params vector.SearchParams) *qc.Filter {
	if !params.Narrowed() {
		return nil
	}

	var must []*qc.Condition
	if params.Namespace != "" {
		must = append(must, qc.NewMatch(namespaceKey, params.Namespace))
	}
	for k, v := range params.Filter {
		must = append(must, qc.NewMatch(k, v))
	}
	return &qc.Filter{Must: must}
}

// Store upserts entries as points.
func (d *Driver) Store(ctx context.Context, entries []vector.Entry) error {
	ctx, cancel := d.callContext(ctx)
	defer cancel()

	if len(entries) == 0 {
		return nil
	}

	points := make([]*qc.PointStruct, len(entries))
	for i, entry := range entries {
		points[i] = &qc.PointStruct{
			Id:      qc.NewIDUUID(PointID(entry.ID)),
			Vectors: qc.NewVectors(entry.Values...),
			Payload: toPayload(entry.ID, entry.Metadata, entry.Namespace),
		}
	}

	if _, err := d.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qc.PtrOf(true),
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("stored entries in qdrant", "count", len(entries))
	return nil
}

// Search runs a nearest neighbor query with namespace and filter pushed down
// as payload conditions.
func (d *Driver) Search(ctx context.Context, params vector.SearchParams) ([]vector.Result, error) {
	ctx, cancel := d.callContext(ctx)
	defer cancel()

	points, err := d.client.Query(ctx, &qc.QueryPoints{
		CollectionName: d.collection,
		Query:          qc.NewQuery(params.Vector...),
		Limit:          qc.PtrOf(uint64(params.Limit())),
		Filter:         filterFor(params),
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.Result, 0, len(points))
	for _, p := range points {
		entry := fromPayload(p.GetPayload())
		entry.Values = denseValues(p.GetVectors())
		results = append(results, vector.Result{Entry: entry, Score: p.GetScore()})
	}

	d.logger.Debug("queried qdrant", "results", len(results))
	return results, nil
}

// Get retrieves entries by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Entry, error) {
	ctx, cancel := d.callContext(ctx)
	defer cancel()

	if len(ids) == 0 {
		return nil, nil
	}

	points, err := d.client.Get(ctx, &qc.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs(ids),
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	entries := make([]vector.Entry, 0, len(points))
	for _, p := range points {
		entry := fromPayload(p.GetPayload())
		entry.Values = denseValues(p.GetVectors())
		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete removes entries by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	ctx, cancel := d.callContext(ctx)
	defer cancel()

	if len(ids) == 0 {
		return nil
	}

	if _, err := d.client.Delete(ctx, &qc.DeletePoints{
		CollectionName: d.collection,
		Wait:           qc.PtrOf(true),
		Points:         qc.NewPointsSelector(pointIDs(ids)...),
	}); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted entries from qdrant", "count", len(ids))
	return nil
}

// UpdateMetadata merges metadata into the point payload. Qdrant's set payload
// already merges keys, the existence check supplies ErrNotFound.
func (d *Driver) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) error {
	ctx, cancel := d.callContext(ctx)
	defer cancel()

	existing, err := d.Get(ctx, []string{id})
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return fmt.Errorf("%w: %s", vector.ErrNotFound, id)
	}

	payload := make(map[string]*qc.Value, len(metadata))
	for k, v := range metadata {
		payload[k] = qc.NewValueString(v)
	}

	if _, err := d.client.SetPayload(ctx, &qc.SetPayloadPoints{
		CollectionName: d.collection,
		Wait:           qc.PtrOf(true),
		Payload:        payload,
		PointsSelector: qc.NewPointsSelector(qc.NewIDUUID(PointID(id))),
	}); err != nil {
		return fmt.Errorf("setting payload for %s: %w", id, err)
	}

	return nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
