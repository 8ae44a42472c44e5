// Package vectorutils is the vector driver utility package
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/chatvault/pkg/logger"
	"github.com/papercomputeco/chatvault/pkg/vector"
	"github.com/papercomputeco/chatvault/pkg/vector/chroma"
	"github.com/papercomputeco/chatvault/pkg/vector/inmemory"
	"github.com/papercomputeco/chatvault/pkg/vector/qdrant"
	"github.com/papercomputeco/chatvault/pkg/vector/sqlitevec"
)

const (
	ProviderSQLite   = "sqlite"
	ProviderChroma   = "chroma"
	ProviderQdrant   = "qdrant"
	ProviderInMemory = "inmemory"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL is the chroma URL or the qdrant gRPC address.
	TargetURL string

	// SQLitePath is the database file for the sqlite provider.
	SQLitePath string

	Collection string
	APIKey     string
	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	log := o.Logger
	if log == nil {
		log = logger.Nop()
	}

	switch o.ProviderType {
	case ProviderSQLite:
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.SQLitePath,
			Dimensions: o.Dimensions,
		}, log)
	case ProviderChroma:
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.Collection,
		}, log)
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Target:         o.TargetURL,
			APIKey:         o.APIKey,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
		}, log)
	case ProviderInMemory:
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
