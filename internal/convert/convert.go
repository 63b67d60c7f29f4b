// Package convert re-encodes existing row-oriented export files into the
// columnar binary format, resolving the schema contract's type suffixes
// into physical column types.
//
// This is the one place property values become typed: identifier columns
// are copied verbatim as strings (the loader is run with string identifiers,
// so coercing them would corrupt references), ":int"/":float"/":boolean"
// suffixed columns are coerced with empty-or-unparsable mapping to null,
// and everything else is copied verbatim. The physical schema is fixed by
// the header; a row that does not fit it is fatal schema drift, never a
// silent drop.
package convert

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/compress"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"golang.org/x/sync/errgroup"

	"github.com/chboudry/finance/internal/coerce"
	"github.com/chboudry/finance/internal/schema"
)

// DefaultBlockRows is the streaming block size in rows. Blocks bound memory;
// the whole file is never loaded.
const DefaultBlockRows = 8192

// Options configures a conversion.
type Options struct {
	// BlockRows overrides the rows-per-block size; <=0 keeps the default.
	BlockRows int
}

// File converts one row-encoded CSV file into a Parquet file at outPath.
func File(ctx context.Context, csvPath, outPath string, opt Options) error {
	blockRows := opt.BlockRows
	if blockRows <= 0 {
		blockRows = DefaultBlockRows
	}

	in, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", csvPath, err)
	}
	defer in.Close()

	cr := csv.NewReader(in)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header %s: %w", csvPath, err)
	}
	// The header fixes the physical schema for the whole file.
	names := make([]string, len(header))
	copy(names, header)
	if len(names) > 0 {
		names[0] = strings.TrimPrefix(names[0], "\uFEFF")
	}

	kinds := make([]schema.Kind, len(names))
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		kinds[i] = schema.ColumnKind(name)
		fields[i] = arrow.Field{Name: schema.ColumnarName(name), Type: arrowType(kinds[i]), Nullable: true}
	}
	sc := arrow.NewSchema(fields, nil)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(sc, out, props, pqarrow.DefaultWriterProps())
	if err != nil {
		out.Close()
		return fmt.Errorf("open parquet writer %s: %w", outPath, err)
	}

	bld := array.NewRecordBuilder(memory.NewGoAllocator(), sc)
	defer bld.Release()

	buffered := 0
	flush := func() error {
		if buffered == 0 {
			return nil
		}
		rec := bld.NewRecord()
		defer rec.Release()
		buffered = 0
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write block %s: %w", outPath, err)
		}
		return nil
	}

	line := 1
	convErr := func() error {
		for {
			if err := ctxErr(ctx); err != nil {
				return err
			}
			rec, err := cr.Read()
			if err == io.EOF {
				return flush()
			}
			line++
			if err != nil {
				// A ragged row cannot fit the fixed schema: fatal drift.
				return fmt.Errorf("%s line %d: schema drift: %w", csvPath, line, err)
			}
			appendRow(bld, kinds, rec)
			buffered++
			if buffered >= blockRows {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}()

	if cerr := w.Close(); convErr == nil {
		convErr = cerr
	}
	if cerr := out.Close(); convErr == nil && cerr != nil && !errors.Is(cerr, os.ErrClosed) {
		convErr = cerr
	}
	return convErr
}

// Files converts many CSV files concurrently, at most workers at a time.
// Each file's conversion is single-threaded; outputs keep the source stem
// with a ".parquet" extension under outDir.
func Files(ctx context.Context, paths []string, outDir string, workers int, opt Options) error {
	if workers <= 0 {
		workers = 1
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", outDir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			outPath := OutputPath(outDir, p)
			log.Printf("convert: %s -> %s", p, outPath)
			return File(ctx, p, outPath, opt)
		})
	}
	return g.Wait()
}

// OutputPath maps a source CSV path to its Parquet output path under dir.
func OutputPath(dir, csvPath string) string {
	base := strings.TrimSuffix(filepath.Base(csvPath), ".csv")
	return filepath.Join(dir, base+".parquet")
}

func arrowType(k schema.Kind) arrow.DataType {
	switch k {
	case schema.KindInt:
		return arrow.PrimitiveTypes.Int64
	case schema.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case schema.KindBool:
		return arrow.FixedWidthTypes.Boolean
	}
	return arrow.BinaryTypes.String
}

// appendRow pushes one CSV record into the block builders, applying the
// suffix-driven coercion rules.
func appendRow(bld *array.RecordBuilder, kinds []schema.Kind, rec []string) {
	for i, kind := range kinds {
		v := rec[i]
		switch kind {
		case schema.KindInt:
			if n, ok := coerce.ParseInt(v); ok {
				bld.Field(i).(*array.Int64Builder).Append(n)
			} else {
				bld.Field(i).AppendNull()
			}
		case schema.KindFloat:
			if f, ok := coerce.ParseFloat(v); ok {
				bld.Field(i).(*array.Float64Builder).Append(f)
			} else {
				bld.Field(i).AppendNull()
			}
		case schema.KindBool:
			// Only the true/false literals become typed values. The row
			// encoding never emits anything else, so "1", "yes" or an
			// empty cell is null here, not a boolean.
			if b, ok := coerce.BoolLiteral(v); ok {
				bld.Field(i).(*array.BooleanBuilder).Append(b)
			} else {
				bld.Field(i).AppendNull()
			}
		default:
			// Identifier and untyped columns are byte-preserved.
			bld.Field(i).(*array.StringBuilder).Append(v)
		}
	}
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
