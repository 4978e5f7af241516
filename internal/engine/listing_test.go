package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/dnslens/internal/errors"
	"github.com/runnerr0/dnslens/internal/storage"
)

func TestNormalizeListParams_Defaults(t *testing.T) {
	req := NormalizeListParams(ListParams{})

	assert.Equal(t, storage.Filter{}, req.Filter)
	assert.Equal(t, storage.SortCreatedAt, req.Sort)
	assert.False(t, req.Ascending)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 0, req.Limit)
}

func TestNormalizeListParams_Degrades(t *testing.T) {
	tests := []struct {
		name string
		in   ListParams
		want ListRequest
	}{
		{
			name: "valid values",
			in:   ListParams{Domain: " google ", Prediction: "Malware", Page: "3", Limit: "25", Sort: "character_entropy", Direction: "asc"},
			want: ListRequest{Filter: storage.Filter{Domain: "google", Prediction: storage.VerdictMalware}, Sort: storage.SortCharacterEntropy, Ascending: true, Page: 3, Limit: 25},
		},
		{
			name: "whitespace domain and unknown verdict",
			in:   ListParams{Domain: "   ", Prediction: "ransomware"},
			want: ListRequest{Sort: storage.SortCreatedAt, Page: 1},
		},
		{
			name: "non-numeric and non-positive paging",
			in:   ListParams{Page: "abc", Limit: "-5"},
			want: ListRequest{Sort: storage.SortCreatedAt, Page: 1},
		},
		{
			name: "zero page",
			in:   ListParams{Page: "0", Limit: "10"},
			want: ListRequest{Sort: storage.SortCreatedAt, Page: 1, Limit: 10},
		},
		{
			name: "unknown sort and direction",
			in:   ListParams{Sort: "ttl_mean", Direction: "up"},
			want: ListRequest{Sort: storage.SortCreatedAt, Page: 1},
		},
		{
			name: "descriptive sort aliases",
			in:   ListParams{Sort: "verdict", Direction: "ASC"},
			want: ListRequest{Sort: storage.SortPrediction, Ascending: true, Page: 1},
		},
		{
			name: "meta characters stay literal",
			in:   ListParams{Domain: `a.(com)+\`},
			want: ListRequest{Filter: storage.Filter{Domain: `a.(com)+\`}, Sort: storage.SortCreatedAt, Page: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeListParams(tc.in))
		})
	}
}

func TestList_TotalCountIndependentOfPaging(t *testing.T) {
	eng, store := openTestEngine(t)
	ctx := context.Background()
	for i, d := range []string{"a.example.com", "b.example.com", "c.example.com", "other.net", "d.example.com"} {
		v := storage.VerdictBenign
		if i%2 == 0 {
			v = storage.VerdictSpam
		}
		seed(t, store, event(d, v, storage.DirectionQuery, float64(len(d))))
	}

	for _, limit := range []string{"0", "1", "2", "10"} {
		for _, page := range []string{"1", "2", "5"} {
			res, err := eng.List(ctx, NormalizeListParams(ListParams{Domain: "EXAMPLE", Page: page, Limit: limit}))
			require.NoError(t, err)
			assert.Equal(t, int64(4), res.TotalCount, "page=%s limit=%s", page, limit)
		}
	}

	res, err := eng.List(ctx, NormalizeListParams(ListParams{Domain: "example", Prediction: "spam"}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	assert.Len(t, res.Logs, 3)
}

func TestList_LimitZeroReturnsAllMatches(t *testing.T) {
	eng, store := openTestEngine(t)
	ctx := context.Background()
	for _, d := range []string{"a.com", "b.com", "c.com"} {
		seed(t, store, event(d, storage.VerdictBenign, storage.DirectionQuery, 5))
	}

	res, err := eng.List(ctx, NormalizeListParams(ListParams{Page: "4", Limit: "0"}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.TotalCount)
	assert.Len(t, res.Logs, 3)
	assert.Equal(t, 4, res.Page)
	assert.Equal(t, 0, res.Limit)
}

func TestList_PageWindow(t *testing.T) {
	eng, store := openTestEngine(t)
	ctx := context.Background()
	for _, d := range []string{"a.com", "b.com", "c.com", "d.com", "e.com"} {
		seed(t, store, event(d, storage.VerdictBenign, storage.DirectionQuery, 5))
	}

	res, err := eng.List(ctx, NormalizeListParams(ListParams{Sort: "domain", Direction: "asc", Page: "2", Limit: "2"}))
	require.NoError(t, err)
	require.Len(t, res.Logs, 2)
	assert.Equal(t, "c.com", res.Logs[0].Domain)
	assert.Equal(t, "d.com", res.Logs[1].Domain)

	res, err = eng.List(ctx, NormalizeListParams(ListParams{Sort: "domain", Direction: "asc", Page: "9", Limit: "2"}))
	require.NoError(t, err)
	assert.Empty(t, res.Logs, "pages past the end are empty, not an error")
	assert.Equal(t, int64(5), res.TotalCount)
}

func TestList_HugePageIsPastTheEnd(t *testing.T) {
	eng, store := openTestEngine(t)
	ctx := context.Background()
	for _, d := range []string{"a.com", "b.com", "c.com"} {
		seed(t, store, event(d, storage.VerdictBenign, storage.DirectionQuery, 5))
	}

	for _, page := range []string{"9223372036854775807", "4611686018427387905"} {
		res, err := eng.List(ctx, NormalizeListParams(ListParams{Page: page, Limit: "2"}))
		require.NoError(t, err, page)
		assert.Empty(t, res.Logs, page)
		assert.Equal(t, int64(3), res.TotalCount, page)
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, pageOffset(1, 10))
	assert.Equal(t, 20, pageOffset(3, 10))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt, 2))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt/2+2, 2))
	assert.Equal(t, math.MaxInt-1, pageOffset(math.MaxInt/2+1, 2))
}

func TestList_SortIsMonotonic(t *testing.T) {
	eng, store := openTestEngine(t)
	ctx := context.Background()
	seed(t, store,
		event("mmm.org", storage.VerdictSpam, storage.DirectionResponse, 7),
		event("aaa.io", storage.VerdictBenign, storage.DirectionQuery, 6),
		event("zzzzzz.net", storage.VerdictPhishing, storage.DirectionQuery, 10),
		event("bb.com", storage.VerdictMalware, storage.DirectionResponse, 6),
	)

	key := map[string]func(e storage.EventRecord) float64{
		"dns_domain_name_length": func(e storage.EventRecord) float64 { return e.DomainNameLength },
		"character_entropy":      func(e storage.EventRecord) float64 { return e.CharacterEntropy },
	}
	for col, fn := range key {
		asc, err := eng.List(ctx, NormalizeListParams(ListParams{Sort: col, Direction: "asc"}))
		require.NoError(t, err)
		for i := 1; i < len(asc.Logs); i++ {
			assert.LessOrEqual(t, fn(asc.Logs[i-1]), fn(asc.Logs[i]), col)
		}

		desc, err := eng.List(ctx, NormalizeListParams(ListParams{Sort: col, Direction: "desc"}))
		require.NoError(t, err)
		for i := 1; i < len(desc.Logs); i++ {
			assert.GreaterOrEqual(t, fn(desc.Logs[i-1]), fn(desc.Logs[i]), col)
		}
	}

	res, err := eng.List(ctx, NormalizeListParams(ListParams{Sort: "domain", Direction: "asc"}))
	require.NoError(t, err)
	for i := 1; i < len(res.Logs); i++ {
		assert.LessOrEqual(t, res.Logs[i-1].Domain, res.Logs[i].Domain)
	}

	res, err = eng.List(ctx, NormalizeListParams(ListParams{Sort: "prediction", Direction: "desc"}))
	require.NoError(t, err)
	for i := 1; i < len(res.Logs); i++ {
		assert.GreaterOrEqual(t, string(res.Logs[i-1].Prediction), string(res.Logs[i].Prediction))
	}
}

func TestList_UnknownSortMatchesCreatedAt(t *testing.T) {
	eng, store := openTestEngine(t)
	ctx := context.Background()
	seed(t, store, event("b.com", storage.VerdictBenign, storage.DirectionQuery, 5))
	seed(t, store, event("a.com", storage.VerdictBenign, storage.DirectionQuery, 5))

	want, err := eng.List(ctx, NormalizeListParams(ListParams{Sort: "createdAt"}))
	require.NoError(t, err)
	got, err := eng.List(ctx, NormalizeListParams(ListParams{Sort: "$where"}))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestList_NoMatchesIsNotAnError(t *testing.T) {
	eng, _ := openTestEngine(t)

	res, err := eng.List(context.Background(), NormalizeListParams(ListParams{Domain: "nothing-here"}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.TotalCount)
	assert.NotNil(t, res.Logs)
	assert.Empty(t, res.Logs)
}

func TestList_StoreFailureIsUnavailable(t *testing.T) {
	eng := New(failingStore{err: errDiskIO}, nil)

	_, err := eng.List(context.Background(), NormalizeListParams(ListParams{}))
	require.Error(t, err)
	assert.Equal(t, errors.KindUnavailable, errors.GetKind(err))
	assert.ErrorIs(t, err, errDiskIO)
}

func TestList_ClampsHandBuiltRequest(t *testing.T) {
	eng, store := openTestEngine(t)
	seed(t, store, event("a.com", storage.VerdictBenign, storage.DirectionQuery, 5))

	res, err := eng.List(context.Background(), ListRequest{Sort: "bogus", Page: -3, Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 0, res.Limit)
	assert.Len(t, res.Logs, 1)
}

func TestPing(t *testing.T) {
	eng, _ := openTestEngine(t)
	assert.NoError(t, eng.Ping(context.Background()))

	err := New(failingStore{err: errDiskIO}, nil).Ping(context.Background())
	assert.Equal(t, errors.KindUnavailable, errors.GetKind(err))
}
