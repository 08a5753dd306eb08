package feed

import (
	"fmt"

	"github.com/born-ml/strata/internal/datasource"
)

// SourceConfig names an indexed data source on disk.
type SourceConfig struct {
	Type  string `yaml:"type"`  // text or manifest
	Path  string `yaml:"path"`  // Data file or manifest
	Cache bool   `yaml:"cache"` // Load every record into memory up front
}

// OpenSource opens the reader described by cfg.
func OpenSource(cfg SourceConfig) (datasource.Reader[float32], error) {
	var (
		r   datasource.Reader[float32]
		err error
	)
	switch cfg.Type {
	case "text":
		r, err = datasource.NewTextReader[float32](cfg.Path)
	case "manifest":
		r, err = datasource.NewManifestReader[float32](cfg.Path)
	default:
		return nil, fmt.Errorf("unknown source type %q (want text or manifest)", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Cache {
		return datasource.NewCachedReader(r, -1)
	}
	return r, nil
}
