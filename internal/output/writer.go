// Package output serializes decisions to the result file from a single
// writer goroutine with bounded buffering.
package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/arpalab/resolvit/internal/config"
	"github.com/arpalab/resolvit/internal/model"
)

var csvHeader = []string{
	"company_name", "city", "status", "domain_official", "resolved_url",
	"score", "confidence", "reason_code", "decision_reason", "error",
	"candidates", "evidence", "wave", "run_id", "timestamp",
}

// Writer serializes concurrent decision writes through one goroutine.
// Enqueue blocks when the buffer is full, so producers slow down rather
// than grow memory when the sink is slower than production.
type Writer struct {
	ch      chan model.Decision
	done    chan struct{}
	err     error
	once    sync.Once
	cfg     config.OutputConfig
	written int
}

// NewWriter opens the output file and starts the writer goroutine.
func NewWriter(cfg config.OutputConfig) (*Writer, error) {
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "output: create %s", cfg.Path)
	}

	w := &Writer{
		ch:   make(chan model.Decision, cfg.BufferSize),
		done: make(chan struct{}),
		cfg:  cfg,
	}
	go w.run(f)
	return w, nil
}

// Enqueue hands a decision to the writer, blocking under backpressure.
func (w *Writer) Enqueue(d model.Decision) {
	w.ch <- d
}

// Close drains the buffer, flushes, and returns any write error.
func (w *Writer) Close() error {
	w.once.Do(func() { close(w.ch) })
	<-w.done
	return w.err
}

// Written returns the number of rows written so far; safe to read only
// after Close.
func (w *Writer) Written() int {
	return w.written
}

func (w *Writer) run(f *os.File) {
	defer close(w.done)
	defer f.Close() //nolint:errcheck

	if w.cfg.Format == "jsonl" {
		w.runJSONL(f)
		return
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		w.err = eris.Wrap(err, "output: write header")
		w.drain()
		return
	}

	pending := 0
	for d := range w.ch {
		if err := cw.Write(w.record(d)); err != nil {
			w.err = eris.Wrap(err, "output: write row")
			w.drain()
			return
		}
		w.written++
		pending++
		if pending >= w.cfg.FlushEvery {
			cw.Flush()
			pending = 0
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		w.err = eris.Wrap(err, "output: flush")
	}
}

func (w *Writer) runJSONL(f *os.File) {
	enc := json.NewEncoder(f)
	for d := range w.ch {
		if !w.cfg.IncludeAudits {
			d.Candidates = nil
			d.Evidence = nil
		}
		if err := enc.Encode(d); err != nil {
			w.err = eris.Wrap(err, "output: encode row")
			w.drain()
			return
		}
		w.written++
	}
}

// drain keeps consuming after a write error so producers never block
// on a dead writer.
func (w *Writer) drain() {
	for range w.ch {
	}
}

func (w *Writer) record(d model.Decision) []string {
	candidates, evidence := "", ""
	if w.cfg.IncludeAudits {
		candidates = marshalOrLog(d.Candidates)
		evidence = marshalOrLog(d.Evidence)
	}
	return []string{
		d.CompanyName,
		d.City,
		string(d.Status),
		d.DomainOfficial,
		d.ResolvedURL,
		strconv.FormatFloat(d.Score, 'f', 1, 64),
		strconv.FormatFloat(d.Confidence, 'f', 1, 64),
		string(d.ReasonCode),
		d.DecisionReason,
		d.Error,
		candidates,
		evidence,
		d.Wave,
		d.RunID,
		d.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func marshalOrLog(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("output: marshal audit trail", zap.Error(err))
		return ""
	}
	return string(b)
}
