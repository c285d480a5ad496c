package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
)

func testDecision() model.Decision {
	return model.Decision{
		CompanyKey:     "rossi costruzioni|verona|",
		CompanyName:    "Rossi Costruzioni Srl",
		City:           "Verona",
		Status:         model.StatusOK,
		DomainOfficial: "rossicostruzioni.it",
		ResolvedURL:    "https://rossicostruzioni.it",
		Score:          72.5,
		Confidence:     80,
		ReasonCode:     model.ReasonScorePassed,
		DecisionReason: "score 72.5 above threshold",
		Candidates:     []model.Candidate{{RootDomain: "rossicostruzioni.it", Provider: model.ProviderSearch}},
		Wave:           "fast-precision",
		RunID:          "run-1",
		Timestamp:      time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
	}
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriter_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewWriter(config.OutputConfig{
		Path:       path,
		Format:     "csv",
		BufferSize: 4,
		FlushEvery: 1,
	})
	require.NoError(t, err)

	w.Enqueue(testDecision())
	notFound := testDecision()
	notFound.CompanyName = "Bianchi SpA"
	notFound.Status = model.StatusNoDomainFound
	notFound.DomainOfficial = ""
	w.Enqueue(notFound)

	require.NoError(t, w.Close())
	assert.Equal(t, 2, w.Written())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "Rossi Costruzioni Srl", records[1][0])
	assert.Equal(t, "Verona", records[1][1])
	assert.Equal(t, "OK", records[1][2])
	assert.Equal(t, "rossicostruzioni.it", records[1][3])
	assert.Equal(t, "72.5", records[1][5])
	assert.Equal(t, "2026-08-29T10:30:00Z", records[1][14])
	assert.Equal(t, "NO_DOMAIN_FOUND", records[2][2])
}

func TestWriter_CSVAuditColumnsEmptyByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewWriter(config.OutputConfig{Path: path, Format: "csv", BufferSize: 1, FlushEvery: 10})
	require.NoError(t, err)

	w.Enqueue(testDecision())
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Empty(t, records[1][10], "candidates column")
	assert.Empty(t, records[1][11], "evidence column")
}

func TestWriter_CSVIncludeAudits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewWriter(config.OutputConfig{
		Path: path, Format: "csv", BufferSize: 1, FlushEvery: 10, IncludeAudits: true,
	})
	require.NoError(t, err)

	w.Enqueue(testDecision())
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	var cands []model.Candidate
	require.NoError(t, json.Unmarshal([]byte(records[1][10]), &cands))
	require.Len(t, cands, 1)
	assert.Equal(t, "rossicostruzioni.it", cands[0].RootDomain)
}

func TestWriter_JSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	w, err := NewWriter(config.OutputConfig{
		Path: path, Format: "jsonl", BufferSize: 4, IncludeAudits: true,
	})
	require.NoError(t, err)

	w.Enqueue(testDecision())
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSpace(readAll(t, path)), "\n")
	require.Len(t, lines, 1)

	var d model.Decision
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &d))
	assert.Equal(t, "rossicostruzioni.it", d.DomainOfficial)
	assert.Len(t, d.Candidates, 1)
}

func TestWriter_JSONLStripsAuditsByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	w, err := NewWriter(config.OutputConfig{Path: path, Format: "jsonl", BufferSize: 4})
	require.NoError(t, err)

	w.Enqueue(testDecision())
	require.NoError(t, w.Close())

	var d model.Decision
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(readAll(t, path))), &d))
	assert.Empty(t, d.Candidates)
	assert.Empty(t, d.Evidence)
}

func TestWriter_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewWriter(config.OutputConfig{Path: path, Format: "csv", BufferSize: 1, FlushEvery: 1})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWriter_BackpressureDoesNotDrop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	// Buffer of one forces Enqueue to block on the writer goroutine.
	w, err := NewWriter(config.OutputConfig{Path: path, Format: "csv", BufferSize: 1, FlushEvery: 100})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		w.Enqueue(testDecision())
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 50, w.Written())
}
