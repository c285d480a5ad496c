package checkpoint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arpalab/resolvit/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func decision(key string, status model.DecisionStatus, domain string) model.Decision {
	return model.Decision{
		CompanyKey:     key,
		CompanyName:    key,
		Status:         status,
		DomainOfficial: domain,
		RunID:          "run-1",
		Timestamp:      time.Now().UTC(),
	}
}

func TestSQLite_AppendAndKeys(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ok := decision("rossi|verona|via roma", model.StatusOK, "rossi.it")
	nf := decision("bianchi|milano|", model.StatusNoDomainFound, "")

	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetValid, ok))
	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetNotFound, nf))

	keys, err := st.Keys(ctx, "run-1", "fast-precision")
	require.NoError(t, err)
	assert.Equal(t, map[string]Set{
		"rossi|verona|via roma": SetValid,
		"bianchi|milano|":       SetNotFound,
	}, keys)

	// Other waves and runs stay isolated.
	keys, err = st.Keys(ctx, "run-1", "deep-coverage")
	require.NoError(t, err)
	assert.Empty(t, keys)
	keys, err = st.Keys(ctx, "run-2", "fast-precision")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSQLite_AppendIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	d := decision("rossi|verona|", model.StatusOK, "rossi.it")
	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetValid, d))

	// Re-appending the same key, even into another set, is a no-op.
	d2 := decision("rossi|verona|", model.StatusNoDomainFound, "")
	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetNotFound, d2))

	keys, err := st.Keys(ctx, "run-1", "fast-precision")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, SetValid, keys["rossi|verona|"])

	decs, err := st.Decisions(ctx, "run-1", "fast-precision", SetValid)
	require.NoError(t, err)
	require.Len(t, decs, 1)
	assert.Equal(t, "rossi.it", decs[0].DomainOfficial)
}

func TestSQLite_DecisionsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	d := decision("rossi|verona|", model.StatusOK, "rossi.it")
	d.Score = 72.5
	d.Confidence = 78.5
	d.ReasonCode = model.ReasonScorePassed
	d.Candidates = []model.Candidate{{RootDomain: "rossi.it", Rank: 1}}
	d.Evidence = []model.Evidence{{Domain: "rossi.it", PhoneMatch: true}}
	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetValid, d))

	decs, err := st.Decisions(ctx, "run-1", "fast-precision", SetValid)
	require.NoError(t, err)
	require.Len(t, decs, 1)
	assert.Equal(t, 72.5, decs[0].Score)
	assert.Equal(t, model.ReasonScorePassed, decs[0].ReasonCode)
	require.Len(t, decs[0].Candidates, 1)
	assert.True(t, decs[0].Evidence[0].PhoneMatch)
}

func TestSQLite_Counts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetValid, decision("a|x|", model.StatusOK, "a.it")))
	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetValid, decision("b|x|", model.StatusOK, "b.it")))
	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetNotFound, decision("c|x|", model.StatusNoDomainFound, "")))
	require.NoError(t, st.Append(ctx, "run-1", "deep-coverage", SetInvalid, decision("c|x|", model.StatusNoDomainFound, "")))

	counts, err := st.Counts(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, counts, 2)

	byWave := map[string]WaveCounts{}
	for _, wc := range counts {
		byWave[wc.Wave] = wc
	}
	assert.Equal(t, WaveCounts{Wave: "fast-precision", Valid: 2, NotFound: 1}, byWave["fast-precision"])
	assert.Equal(t, WaveCounts{Wave: "deep-coverage", Invalid: 1}, byWave["deep-coverage"])
}

func TestSQLite_Runs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, "run-1", "fast-precision", SetValid, decision("a|x|", model.StatusOK, "a.it")))
	require.NoError(t, st.Append(ctx, "run-2", "fast-precision", SetValid, decision("b|x|", model.StatusOK, "b.it")))

	runs, err := st.Runs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"run-1", "run-2"}, runs)
}

func TestSetFor(t *testing.T) {
	assert.Equal(t, SetValid, SetFor(model.Decision{Status: model.StatusOK, DomainOfficial: "a.it"}))

	rejected := model.Decision{
		Status:     model.StatusNoDomainFound,
		Candidates: []model.Candidate{{RootDomain: "a.it"}},
	}
	assert.Equal(t, SetInvalid, SetFor(rejected))

	assert.Equal(t, SetNotFound, SetFor(model.Decision{Status: model.StatusNoDomainFound}))
	assert.Equal(t, SetNotFound, SetFor(model.Decision{Status: model.StatusErrorFetch}))
}
