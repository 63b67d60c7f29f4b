package sink

import (
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/compress"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"

	"github.com/chboudry/finance/internal/schema"
)

// ParquetSink writes the columnar encoding. Rows are buffered and appended
// to the file as a row group once the batch fills (or at close). Every
// column is stored as a plain utf8 string regardless of its declared type
// suffix; resolving suffixes into physical types is the bulk converter's
// job, not this sink's. Headers use the derived columnar names.
type ParquetSink struct {
	f         *os.File
	w         *pqarrow.FileWriter
	bld       *array.RecordBuilder
	fields    []string // row-encoding names, lookup keys into Row
	buffered  int
	batchSize int
}

// NewParquetSink creates path with a schema derived from fields. fields are
// row-encoding names; the parquet column names are their ColumnarName
// derivations.
func NewParquetSink(path string, fields []string, batchSize int) (*ParquetSink, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	arrowFields := make([]arrow.Field, len(fields))
	for i, name := range fields {
		arrowFields[i] = arrow.Field{
			Name:     schema.ColumnarName(name),
			Type:     arrow.BinaryTypes.String,
			Nullable: true,
		}
	}
	sc := arrow.NewSchema(arrowFields, nil)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(sc, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet writer %s: %w", path, err)
	}

	return &ParquetSink{
		f:         f,
		w:         w,
		bld:       array.NewRecordBuilder(memory.NewGoAllocator(), sc),
		fields:    fields,
		batchSize: batchSize,
	}, nil
}

// Write buffers one row. Missing keys become empty strings.
func (s *ParquetSink) Write(row Row) error {
	for i, name := range s.fields {
		s.bld.Field(i).(*array.StringBuilder).Append(row[name])
	}
	s.buffered++
	if s.buffered >= s.batchSize {
		return s.flush()
	}
	return nil
}

func (s *ParquetSink) flush() error {
	if s.buffered == 0 {
		return nil
	}
	rec := s.bld.NewRecord()
	defer rec.Release()
	s.buffered = 0
	if err := s.w.Write(rec); err != nil {
		return fmt.Errorf("write parquet batch %s: %w", s.f.Name(), err)
	}
	return nil
}

// Close flushes the remaining batch and finalizes the file. A sink that
// never received a row still produces a valid schema-only file, so the set
// of output files stays predictable for the downstream loader.
func (s *ParquetSink) Close() error {
	err := s.flush()
	if cerr := s.w.Close(); err == nil {
		err = cerr
	}
	// The parquet writer closes the underlying file; tolerate the double
	// close so this path stays correct if that ever changes.
	if cerr := s.f.Close(); err == nil && cerr != nil && !errors.Is(cerr, os.ErrClosed) {
		err = cerr
	}
	s.bld.Release()
	if err != nil {
		return fmt.Errorf("close %s: %w", s.f.Name(), err)
	}
	return nil
}
