// Package feed moves records from an indexed data source into network input
// tensors: the IndexedData layer and the double-buffered Prefetcher it uses.
package feed

import (
	"context"
	"fmt"
	"math"

	"github.com/born-ml/strata/internal/datasource"
	"github.com/born-ml/strata/internal/layer"
	"github.com/born-ml/strata/internal/tensor"
)

func init() {
	layer.Register(layer.KindIndexedData, DefaultIndexedDataConfig, func(name string, cfg IndexedDataConfig) layer.Layer {
		return NewIndexedData(name, cfg)
	})
}

// IndexedDataConfig configures an IndexedData layer.
type IndexedDataConfig struct {
	BatchSize int          `yaml:"batch_size"`
	Channels  int          `yaml:"channels"`
	Height    int          `yaml:"height"`
	Width     int          `yaml:"width"`
	Start     int          `yaml:"start"`    // First index read without an index bottom
	Prefetch  bool         `yaml:"prefetch"` // Load the next batch in the background
	Source    SourceConfig `yaml:"source"`

	// Reader, when set, is used instead of opening Source.
	Reader datasource.Reader[float32] `yaml:"-"`
}

// DefaultIndexedDataConfig reads single-value records one at a time.
func DefaultIndexedDataConfig() IndexedDataConfig {
	return IndexedDataConfig{BatchSize: 1, Channels: 1, Height: 1, Width: 1}
}

// IndexedData feeds records of a reader into its first top.
//
// Without a bottom each Forward reads BatchSize consecutive records,
// starting at Start and continuing where the previous batch ended. With a
// sized reader the index wraps to 0 after the last record.
//
// With one bottom the layer turns indices into records: item n of the top
// is the record at the index stored in the first value of item n of the
// bottom (rounded to the nearest integer), so the batch size follows the
// bottom. A negative or out-of-range index panics with an error wrapping
// datasource.ErrIndexOutOfRange. The bottom never receives a gradient.
//
// Every record must hold exactly C·H·W values. The optional second top
// receives the source index of each item.
//
// With Prefetch (bottomless only) the next batch is read in the background
// while the current one is in use, and top 0 borrows the prefetched buffer
// instead of copying.
type IndexedData struct {
	name     string
	cfg      IndexedDataConfig
	reader   datasource.Reader[float32]
	size     int
	cursor   int
	prefetch *Prefetcher
}

// NewIndexedData creates an IndexedData layer.
func NewIndexedData(name string, cfg IndexedDataConfig) *IndexedData {
	return &IndexedData{name: name, cfg: cfg}
}

// Kind returns layer.KindIndexedData.
func (l *IndexedData) Kind() layer.Kind { return layer.KindIndexedData }

// Name returns the instance name.
func (l *IndexedData) Name() string { return l.name }

// Multiplicity returns an optional index bottom and one or two tops.
func (l *IndexedData) Multiplicity() layer.Multiplicity {
	return layer.Multiplicity{MinBottoms: 0, MaxBottoms: 1, MinTops: 1, MaxTops: 2}
}

// Params returns nil.
func (l *IndexedData) Params() []*tensor.Tensor { return nil }

func (l *IndexedData) configError(format string, args ...any) error {
	return &layer.ConfigError{Kind: layer.KindIndexedData, Layer: l.name, Details: fmt.Sprintf(format, args...)}
}

func (l *IndexedData) shape() tensor.Shape {
	return tensor.NewShape(l.cfg.BatchSize, l.cfg.Channels, l.cfg.Height, l.cfg.Width)
}

func (l *IndexedData) recordLen() int {
	return l.cfg.Channels * l.cfg.Height * l.cfg.Width
}

// LayerSetUp validates the batch geometry and opens the reader.
func (l *IndexedData) LayerSetUp(bottom, _ []*tensor.Tensor) error {
	if len(bottom) > 0 && l.cfg.Prefetch {
		return l.configError("prefetch needs sequential reads; it cannot be combined with an index bottom")
	}
	if l.cfg.BatchSize < 1 {
		return l.configError("batch_size must be >= 1, got %d", l.cfg.BatchSize)
	}
	if l.cfg.Channels < 1 || l.cfg.Height < 1 || l.cfg.Width < 1 {
		return l.configError("record shape (%d,%d,%d) must be positive", l.cfg.Channels, l.cfg.Height, l.cfg.Width)
	}

	l.reader = l.cfg.Reader
	if l.reader == nil {
		r, err := OpenSource(l.cfg.Source)
		if err != nil {
			return l.configError("source: %v", err)
		}
		l.reader = r
	}

	l.size = datasource.Len(l.reader)
	if l.size == 0 {
		return l.configError("data source is empty")
	}
	if l.cfg.Start < 0 || (l.size > 0 && l.cfg.Start >= l.size) {
		return l.configError("start %d out of range for %d records", l.cfg.Start, l.size)
	}
	l.cursor = l.cfg.Start

	if l.cfg.Prefetch {
		l.prefetch = NewPrefetcher(context.Background(), l.shape(), l.fill)
	}
	return nil
}

// Reshape sizes top 0 to (N, C, H, W) and top 1 to (N, 1, 1, 1), where N is
// the index bottom's batch size or BatchSize without one.
func (l *IndexedData) Reshape(bottom, top []*tensor.Tensor) error {
	s := l.shape()
	if len(bottom) > 0 {
		idx := bottom[0]
		if idx.Num() > 0 && idx.Count(1, tensor.NumAxes) < 1 {
			return l.configError("index bottom %v holds no value per item", idx.Shape())
		}
		s = s.With(tensor.AxisNum, idx.Num())
	}
	top[0].Reshape(s)
	if len(top) > 1 {
		top[1].Reshape(tensor.NewShape(s[tensor.AxisNum], 1, 1, 1))
	}
	return nil
}

// read copies record idx into dst, which must have the record length.
func (l *IndexedData) read(idx int, dst []float32) error {
	n, err := l.reader.Read(idx, dst)
	if err != nil {
		return fmt.Errorf("%s layer %q: %w", layer.KindIndexedData, l.name, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%s layer %q: %w: record %d holds %d values, want %d",
			layer.KindIndexedData, l.name, datasource.ErrIO, idx, n, len(dst))
	}
	return nil
}

// fill reads the next BatchSize records into b, advancing the cursor.
func (l *IndexedData) fill(ctx context.Context, b *Batch) error {
	rec := l.recordLen()
	data := b.Data.Data()
	for i := range l.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := l.cursor
		if err := l.read(idx, data[i*rec:(i+1)*rec]); err != nil {
			return err
		}
		b.Indices[i] = idx
		l.cursor++
		if l.size > 0 && l.cursor == l.size {
			l.cursor = 0
		}
	}
	return nil
}

// lookup reads the record named by each item of the index tensor into b.
func (l *IndexedData) lookup(index *tensor.Tensor, b *Batch) error {
	rec := l.recordLen()
	dim := index.Count(1, tensor.NumAxes)
	data, ids := b.Data.Data(), index.Data()
	for i := range b.Indices {
		v := float64(ids[i*dim])
		idx := int(math.Round(v))
		if math.IsNaN(v) || idx < 0 || (l.size > 0 && idx >= l.size) {
			return fmt.Errorf("%s layer %q: %w: item %d names record %g of %d",
				layer.KindIndexedData, l.name, datasource.ErrIndexOutOfRange, i, v, l.size)
		}
		if err := l.read(idx, data[i*rec:(i+1)*rec]); err != nil {
			return err
		}
		b.Indices[i] = idx
	}
	return nil
}

// Forward loads the next batch, or the records named by the index bottom.
// A read failure panics with the error.
func (l *IndexedData) Forward(bottom, top []*tensor.Tensor) {
	var b *Batch
	if len(bottom) > 0 {
		b = &Batch{Data: top[0], Indices: make([]int, bottom[0].Num())}
		if err := l.lookup(bottom[0], b); err != nil {
			panic(err)
		}
	} else if l.prefetch != nil {
		var err error
		if b, err = l.prefetch.Next(context.Background()); err != nil {
			panic(err)
		}
		top[0].ShareData(b.Data)
	} else {
		b = &Batch{Data: top[0], Indices: make([]int, l.cfg.BatchSize)}
		if err := l.fill(context.Background(), b); err != nil {
			panic(err)
		}
	}
	if len(top) > 1 {
		out := top[1].Data()
		for i, idx := range b.Indices {
			out[i] = float32(idx)
		}
	}
}

// Backward does nothing; indices are not differentiable.
func (l *IndexedData) Backward(_ []*tensor.Tensor, _ []bool, _ []*tensor.Tensor) {}

// Close stops the background loader, if any.
func (l *IndexedData) Close() error {
	if l.prefetch == nil {
		return nil
	}
	err := l.prefetch.Close()
	l.prefetch = nil
	return err
}
