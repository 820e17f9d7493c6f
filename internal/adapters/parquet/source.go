// Package parquet reads the fire detection dataset from a parquet file.
package parquet

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// Source implements ports.FireSource for parquet files.
type Source struct {
	batchSize int64
	alloc     memory.Allocator
}

// NewSource creates a parquet source. batchSize <= 0 uses the reader default.
func NewSource(batchSize int64) *Source {
	return &Source{batchSize: batchSize, alloc: memory.DefaultAllocator}
}

// ReadFires reads every row of the file at path.
func (s *Source) ReadFires(ctx context.Context, path string) ([]domain.RawFireRow, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &domain.FileAccessError{Path: path, Err: err}
	}

	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, &domain.FileAccessError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer pf.Close()

	props := pqarrow.ArrowReadProperties{Parallel: true}
	if s.batchSize > 0 {
		props.BatchSize = s.batchSize
	}
	fr, err := pqarrow.NewFileReader(pf, props, s.alloc)
	if err != nil {
		return nil, fmt.Errorf("parquet reader: %w", err)
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("read parquet table: %w", err)
	}
	defer tbl.Release()

	return tableRows(tbl)
}

// tableRows converts an arrow table with the fire schema into raw rows.
func tableRows(tbl arrow.Table) ([]domain.RawFireRow, error) {
	n := int(tbl.NumRows())
	rows := make([]domain.RawFireRow, n)

	required := []struct {
		name string
		fill func(arr arrow.Array, off int) error
	}{
		{domain.ColAcqDate, func(arr arrow.Array, off int) error {
			return eachString(arr, off, func(i int, v string) { rows[i].AcqDate = v })
		}},
		{domain.ColLatitude, func(arr arrow.Array, off int) error {
			return eachFloat(arr, off, func(i int, v float64) { rows[i].Latitude = v })
		}},
		{domain.ColLongitude, func(arr arrow.Array, off int) error {
			return eachFloat(arr, off, func(i int, v float64) { rows[i].Longitude = v })
		}},
		{domain.ColBrightness, func(arr arrow.Array, off int) error {
			return eachFloat(arr, off, func(i int, v float64) { rows[i].Brightness = v })
		}},
		{domain.ColFRP, func(arr arrow.Array, off int) error {
			return eachFloat(arr, off, func(i int, v float64) { rows[i].FRP = v })
		}},
		{domain.ColGeometry, func(arr arrow.Array, off int) error {
			return eachBinary(arr, off, func(i int, v []byte) { rows[i].Geometry = v })
		}},
	}
	optional := []struct {
		name string
		fill func(arr arrow.Array, off int) error
	}{
		{domain.ColConfidence, func(arr arrow.Array, off int) error {
			return eachString(arr, off, func(i int, v string) { rows[i].Confidence = v })
		}},
		{domain.ColDayNight, func(arr arrow.Array, off int) error {
			return eachString(arr, off, func(i int, v string) { rows[i].DayNight = v })
		}},
		{domain.ColSatellite, func(arr arrow.Array, off int) error {
			return eachString(arr, off, func(i int, v string) { rows[i].Satellite = v })
		}},
		{domain.ColInstrument, func(arr arrow.Array, off int) error {
			return eachString(arr, off, func(i int, v string) { rows[i].Instrument = v })
		}},
	}

	schema := tbl.Schema()
	for _, col := range required {
		idx := schema.FieldIndices(col.name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("parquet: missing column %s", col.name)
		}
		if err := fillColumn(tbl.Column(idx[0]), col.fill); err != nil {
			return nil, fmt.Errorf("parquet column %s: %w", col.name, err)
		}
	}
	for _, col := range optional {
		idx := schema.FieldIndices(col.name)
		if len(idx) == 0 {
			continue
		}
		// Optional columns of an unexpected type are ignored.
		_ = fillColumn(tbl.Column(idx[0]), col.fill)
	}
	return rows, nil
}

func fillColumn(col *arrow.Column, fill func(arr arrow.Array, off int) error) error {
	off := 0
	for _, chunk := range col.Data().Chunks() {
		if err := fill(chunk, off); err != nil {
			return err
		}
		off += chunk.Len()
	}
	return nil
}

func eachString(arr arrow.Array, off int, set func(int, string)) error {
	switch a := arr.(type) {
	case *array.String:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, a.Value(i))
			}
		}
	case *array.LargeString:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, a.Value(i))
			}
		}
	case *array.Date32:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, a.Value(i).ToTime().Format("2006-01-02"))
			}
		}
	case *array.Date64:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, a.Value(i).ToTime().Format("2006-01-02"))
			}
		}
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, a.Value(i).ToTime(unit).UTC().Format("2006-01-02 15:04:05"))
			}
		}
	default:
		return fmt.Errorf("unsupported string type %s", arr.DataType())
	}
	return nil
}

func eachFloat(arr arrow.Array, off int, set func(int, float64)) error {
	switch a := arr.(type) {
	case *array.Float64:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, a.Value(i))
			}
		}
	case *array.Float32:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, float64(a.Value(i)))
			}
		}
	case *array.Int64:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, float64(a.Value(i)))
			}
		}
	case *array.Int32:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, float64(a.Value(i)))
			}
		}
	default:
		return fmt.Errorf("unsupported numeric type %s", arr.DataType())
	}
	return nil
}

func eachBinary(arr arrow.Array, off int, set func(int, []byte)) error {
	switch a := arr.(type) {
	case *array.Binary:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, cloneBytes(a.Value(i)))
			}
		}
	case *array.LargeBinary:
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				set(off+i, cloneBytes(a.Value(i)))
			}
		}
	default:
		return fmt.Errorf("unsupported binary type %s", arr.DataType())
	}
	return nil
}

// cloneBytes copies a value out of arrow memory, which is released with the table.
func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
