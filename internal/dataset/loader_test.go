package dataset_test

import (
	"context"
	"encoding/binary"
	"errors"
	"io/fs"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/dataset"
)

// countingSource serves rows for one known path and counts reads.
type countingSource struct {
	path  string
	rows  []domain.RawFireRow
	calls atomic.Int32
	gate  chan struct{}
}

func (s *countingSource) ReadFires(ctx context.Context, path string) ([]domain.RawFireRow, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if path != s.path {
		return nil, &domain.FileAccessError{Path: path, Err: fs.ErrNotExist}
	}
	out := make([]domain.RawFireRow, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, subject string, ev *domain.DashboardEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func row(t *testing.T, date string, lat, lon float64) domain.RawFireRow {
	t.Helper()
	geom, err := dataset.EncodePoint(domain.GeoPoint{Lat: lat, Lon: lon})
	require.NoError(t, err)
	return domain.RawFireRow{
		AcqDate:    date,
		Latitude:   lat,
		Longitude:  lon,
		Brightness: 320.5,
		FRP:        14.2,
		Geometry:   geom,
	}
}

func TestLoader_LoadsOnce(t *testing.T) {
	src := &countingSource{
		path: "fires.parquet",
		rows: []domain.RawFireRow{
			row(t, "2020-07-15", 34.1, -118.2),
			row(t, "2021-01-03", 37.7, -122.4),
		},
	}
	loader := dataset.NewLoader(src, nil)

	first, err := loader.Load(context.Background(), "fires.parquet")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := loader.Load(context.Background(), "fires.parquet")
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 2, first.Len())
}

func TestLoader_ConcurrentFirstCallsShareOneRead(t *testing.T) {
	src := &countingSource{
		path: "fires.parquet",
		rows: []domain.RawFireRow{row(t, "2020-07-15", 34.1, -118.2)},
		gate: make(chan struct{}),
	}
	loader := dataset.NewLoader(src, nil)

	const callers = 16
	tables := make([]*domain.FireTable, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tb, err := loader.Load(context.Background(), "fires.parquet")
			if err == nil {
				tables[i] = tb
			}
		}(i)
	}
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for i := range tables {
		require.NotNil(t, tables[i])
		assert.Same(t, tables[0], tables[i])
	}
}

func TestLoader_GeometryRoundTrip(t *testing.T) {
	lon, lat := -121.123456789, 38.987654321
	src := &countingSource{path: "p", rows: []domain.RawFireRow{row(t, "2020-07-15", lat, lon)}}

	tb, err := dataset.NewLoader(src, nil).Load(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, tb.Rows, 1)

	g := tb.Rows[0].Geometry
	assert.LessOrEqual(t, math.Abs(g.Lon-lon), 1e-9)
	assert.LessOrEqual(t, math.Abs(g.Lat-lat), 1e-9)
}

func TestLoader_DerivedFields(t *testing.T) {
	src := &countingSource{path: "p", rows: []domain.RawFireRow{row(t, "2020-07-15", 1, 2)}}

	tb, err := dataset.NewLoader(src, nil).Load(context.Background(), "p")
	require.NoError(t, err)

	p := tb.Rows[0]
	require.NotNil(t, p.Year)
	require.NotNil(t, p.Month)
	require.NotNil(t, p.Season)
	assert.Equal(t, 2020, *p.Year)
	assert.Equal(t, 7, *p.Month)
	assert.Equal(t, domain.Summer, *p.Season)
	assert.Empty(t, tb.Warnings)
}

func TestLoader_MalformedDateKeepsRow(t *testing.T) {
	src := &countingSource{path: "p", rows: []domain.RawFireRow{
		row(t, "2019-02-01", 1, 2),
		row(t, "not-a-date", 3, 4),
		row(t, "2019-10-31", 5, 6),
	}}

	tb, err := dataset.NewLoader(src, nil).Load(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, tb.Rows, 3)

	bad := tb.Rows[1]
	assert.Equal(t, "not-a-date", bad.AcqDateRaw)
	assert.Nil(t, bad.AcqDate)
	assert.Nil(t, bad.Year)
	assert.Nil(t, bad.Month)
	assert.Nil(t, bad.Season)

	require.Len(t, tb.Warnings, 1)
	assert.Equal(t, domain.WarningDate, tb.Warnings[0].Kind)
	assert.Equal(t, 1, tb.Warnings[0].Row)
	assert.Equal(t, "not-a-date", tb.Warnings[0].Value)

	assert.Equal(t, domain.Winter, *tb.Rows[0].Season)
	assert.Equal(t, domain.Fall, *tb.Rows[2].Season)
}

func TestLoader_BadGeometrySkipsRow(t *testing.T) {
	broken := row(t, "2020-07-15", 1, 2)
	broken.Geometry = []byte{0x01, 0x02}
	src := &countingSource{path: "p", rows: []domain.RawFireRow{row(t, "2020-07-15", 1, 2), broken}}

	tb, err := dataset.NewLoader(src, nil).Load(context.Background(), "p")
	require.NoError(t, err)
	assert.Len(t, tb.Rows, 1)
	require.Len(t, tb.Warnings, 1)
	assert.Equal(t, domain.WarningGeometry, tb.Warnings[0].Kind)
	assert.Equal(t, 1, tb.Warnings[0].Row)
}

func TestLoader_MissingFileLeavesSlotEmpty(t *testing.T) {
	src := &countingSource{path: "fires.parquet", rows: []domain.RawFireRow{row(t, "2020-07-15", 1, 2)}}
	loader := dataset.NewLoader(src, nil)

	_, err := loader.Load(context.Background(), "/nonexistent/path")
	require.Error(t, err)

	var fae *domain.FileAccessError
	assert.True(t, errors.As(err, &fae))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Nil(t, loader.Cached())
	assert.True(t, errors.Is(loader.Err(), fs.ErrNotExist))

	tb, err := loader.Load(context.Background(), "fires.parquet")
	require.NoError(t, err)
	assert.Equal(t, 1, tb.Len())
	assert.Equal(t, int32(2), src.calls.Load())
	assert.NoError(t, loader.Err())
}

func TestLoader_ResetDuringLoadLeavesSlotEmpty(t *testing.T) {
	src := &countingSource{
		path: "p",
		rows: []domain.RawFireRow{row(t, "2020-07-15", 1, 2)},
		gate: make(chan struct{}),
	}
	loader := dataset.NewLoader(src, nil)

	done := make(chan *domain.FireTable)
	go func() {
		tb, _ := loader.Load(context.Background(), "p")
		done <- tb
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	loader.Reset()
	close(src.gate)
	tb := <-done

	require.NotNil(t, tb)
	assert.Nil(t, loader.Cached())

	again, err := loader.Load(context.Background(), "p")
	require.NoError(t, err)
	assert.NotSame(t, tb, again)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestLoader_ResetForcesReload(t *testing.T) {
	src := &countingSource{path: "p", rows: []domain.RawFireRow{row(t, "2020-07-15", 1, 2)}}
	loader := dataset.NewLoader(src, nil)

	first, err := loader.Load(context.Background(), "p")
	require.NoError(t, err)
	loader.Reset()
	assert.Nil(t, loader.Cached())

	second, err := loader.Load(context.Background(), "p")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestLoader_PublishesLoadedEvent(t *testing.T) {
	src := &countingSource{path: "p", rows: []domain.RawFireRow{row(t, "2020-07-15", 1, 2)}}
	pub := &recordingPublisher{}
	loader := dataset.NewLoader(src, pub)

	_, err := loader.Load(context.Background(), "p")
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), "p")
	require.NoError(t, err)

	assert.Equal(t, []string{domain.EventDatasetLoaded}, pub.subjects)
}

func TestLoader_EmptyPointSkipped(t *testing.T) {
	empty, err := wkb.Marshal(orb.Point{math.NaN(), math.NaN()}, binary.LittleEndian)
	require.NoError(t, err)

	bad := row(t, "2020-07-15", 0, 0)
	bad.Geometry = empty
	src := &countingSource{
		path: "fires.parquet",
		rows: []domain.RawFireRow{row(t, "2020-07-15", 34.1, -118.2), bad},
	}

	table, err := dataset.NewLoader(src, nil).Load(context.Background(), "fires.parquet")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	require.Len(t, table.Warnings, 1)
	assert.Equal(t, domain.WarningGeometry, table.Warnings[0].Kind)
	assert.Equal(t, 1, table.Warnings[0].Row)
}
