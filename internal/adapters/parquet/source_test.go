package parquet_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	pq "github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/hazardboard/internal/adapters/parquet"
	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/dataset"
)

func writeParquet(t *testing.T, schema *arrow.Schema, build func(b *array.RecordBuilder)) string {
	t.Helper()

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	build(b)
	rec := b.NewRecord()
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "fires.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := pqarrow.NewFileWriter(schema, f, pq.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	return path
}

func wkbPoint(t *testing.T, lat, lon float64) []byte {
	t.Helper()
	b, err := dataset.EncodePoint(domain.GeoPoint{Lat: lat, Lon: lon})
	require.NoError(t, err)
	return b
}

func TestSource_ReadsStringDates(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ACQ_DATE", Type: arrow.BinaryTypes.String},
		{Name: "LATITUDE", Type: arrow.PrimitiveTypes.Float64},
		{Name: "LONGITUDE", Type: arrow.PrimitiveTypes.Float64},
		{Name: "BRIGHTNESS", Type: arrow.PrimitiveTypes.Float64},
		{Name: "FRP", Type: arrow.PrimitiveTypes.Float64},
		{Name: "DAYNIGHT", Type: arrow.BinaryTypes.String},
		{Name: "geometry", Type: arrow.BinaryTypes.Binary},
	}, nil)

	path := writeParquet(t, schema, func(b *array.RecordBuilder) {
		b.Field(0).(*array.StringBuilder).AppendValues([]string{"2020-07-15", "not-a-date"}, nil)
		b.Field(1).(*array.Float64Builder).AppendValues([]float64{34.05, 40.71}, nil)
		b.Field(2).(*array.Float64Builder).AppendValues([]float64{-118.24, -74.0}, nil)
		b.Field(3).(*array.Float64Builder).AppendValues([]float64{330.1, 301.7}, nil)
		b.Field(4).(*array.Float64Builder).AppendValues([]float64{22.5, 8.1}, nil)
		b.Field(5).(*array.StringBuilder).AppendValues([]string{"D", "N"}, nil)
		b.Field(6).(*array.BinaryBuilder).AppendValues([][]byte{
			wkbPoint(t, 34.05, -118.24),
			wkbPoint(t, 40.71, -74.0),
		}, nil)
	})

	rows, err := parquet.NewSource(0).ReadFires(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2020-07-15", rows[0].AcqDate)
	assert.Equal(t, "not-a-date", rows[1].AcqDate)
	assert.InDelta(t, 34.05, rows[0].Latitude, 1e-12)
	assert.InDelta(t, -74.0, rows[1].Longitude, 1e-12)
	assert.InDelta(t, 301.7, rows[1].Brightness, 1e-12)
	assert.InDelta(t, 22.5, rows[0].FRP, 1e-12)
	assert.Equal(t, "D", rows[0].DayNight)

	p, err := dataset.DecodePoint(rows[1].Geometry)
	require.NoError(t, err)
	assert.InDelta(t, 40.71, p.Lat, 1e-9)
	assert.InDelta(t, -74.0, p.Lon, 1e-9)
}

func TestSource_ReadsTypedDatesAndFloat32(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ACQ_DATE", Type: arrow.FixedWidthTypes.Date32},
		{Name: "LATITUDE", Type: arrow.PrimitiveTypes.Float32},
		{Name: "LONGITUDE", Type: arrow.PrimitiveTypes.Float32},
		{Name: "BRIGHTNESS", Type: arrow.PrimitiveTypes.Float32},
		{Name: "FRP", Type: arrow.PrimitiveTypes.Float32},
		{Name: "geometry", Type: arrow.BinaryTypes.Binary},
	}, nil)

	day := time.Date(2019, 12, 24, 0, 0, 0, 0, time.UTC)
	path := writeParquet(t, schema, func(b *array.RecordBuilder) {
		b.Field(0).(*array.Date32Builder).Append(arrow.Date32FromTime(day))
		b.Field(1).(*array.Float32Builder).Append(10.5)
		b.Field(2).(*array.Float32Builder).Append(-20.25)
		b.Field(3).(*array.Float32Builder).Append(300)
		b.Field(4).(*array.Float32Builder).Append(5.5)
		b.Field(5).(*array.BinaryBuilder).Append(wkbPoint(t, 10.5, -20.25))
	})

	rows, err := parquet.NewSource(1024).ReadFires(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2019-12-24", rows[0].AcqDate)
	assert.InDelta(t, 10.5, rows[0].Latitude, 1e-6)
	assert.InDelta(t, 5.5, rows[0].FRP, 1e-6)
}

func TestSource_MissingFile(t *testing.T) {
	_, err := parquet.NewSource(0).ReadFires(context.Background(), "/nonexistent/path/fires.parquet")
	require.Error(t, err)

	var fae *domain.FileAccessError
	assert.True(t, errors.As(err, &fae))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSource_MissingColumn(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ACQ_DATE", Type: arrow.BinaryTypes.String},
		{Name: "LATITUDE", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
	path := writeParquet(t, schema, func(b *array.RecordBuilder) {
		b.Field(0).(*array.StringBuilder).Append("2020-01-01")
		b.Field(1).(*array.Float64Builder).Append(1)
	})

	_, err := parquet.NewSource(0).ReadFires(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column LONGITUDE")
}

func TestSource_FeedsLoader(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ACQ_DATE", Type: arrow.BinaryTypes.String},
		{Name: "LATITUDE", Type: arrow.PrimitiveTypes.Float64},
		{Name: "LONGITUDE", Type: arrow.PrimitiveTypes.Float64},
		{Name: "BRIGHTNESS", Type: arrow.PrimitiveTypes.Float64},
		{Name: "FRP", Type: arrow.PrimitiveTypes.Float64},
		{Name: "geometry", Type: arrow.BinaryTypes.Binary},
	}, nil)
	path := writeParquet(t, schema, func(b *array.RecordBuilder) {
		b.Field(0).(*array.StringBuilder).Append("2020-07-15")
		b.Field(1).(*array.Float64Builder).Append(38.5)
		b.Field(2).(*array.Float64Builder).Append(-121.5)
		b.Field(3).(*array.Float64Builder).Append(310)
		b.Field(4).(*array.Float64Builder).Append(9)
		b.Field(5).(*array.BinaryBuilder).Append(wkbPoint(t, 38.5, -121.5))
	})

	loader := dataset.NewLoader(parquet.NewSource(0), nil)
	_, err := loader.Load(context.Background(), "/nonexistent/path")
	require.Error(t, err)
	assert.Nil(t, loader.Cached())

	tb, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, tb.Len())
	assert.Equal(t, domain.Summer, *tb.Rows[0].Season)
}
