package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/navdoc/internal/loader"
	"github.com/dgallion1/navdoc/internal/source"
)

// Worker runs reload jobs against a single source.
type Worker struct {
	src     source.Source
	catalog *Catalog
	stats   *LoadStats
	log     *slog.Logger
	opts    loader.Options
}

func NewWorker(src source.Source, catalog *Catalog, stats *LoadStats, log *slog.Logger, opts loader.Options) *Worker {
	return &Worker{
		src:     src,
		catalog: catalog,
		stats:   stats,
		log:     log,
		opts:    opts,
	}
}

// Process loads the site and installs it in the catalog unless it is
// unchanged.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "site", job.Site, "reason", job.Reason)
	start := time.Now()

	opts := w.opts
	opts.Logger = log
	opts.OnPhase = func(p loader.Phase) {
		job.SetStatus(phaseStatus(p), string(p))
	}

	site, err := loader.Load(ctx, w.src, opts)
	elapsed := time.Since(start)
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(fmt.Sprintf("load: %s", err))
		job.SetResult(Progress{DurationMs: elapsed.Milliseconds()}, "")
		w.finish(job, StatusFailed, "failed", elapsed)
		return
	}

	st := site.Stats()
	job.SetResult(Progress{
		Nodes:        st.Nodes,
		Tables:       st.Tables,
		Partitions:   st.Partitions,
		SymbolTables: st.SymbolTables,
		Missing:      site.Missing,
		DurationMs:   elapsed.Milliseconds(),
	}, site.Fingerprint)

	if site.Fingerprint == w.catalog.Fingerprint() {
		log.Info("site unchanged", "fingerprint", site.Fingerprint)
		w.finish(job, StatusUnchanged, "done", elapsed)
		return
	}

	if !w.catalog.Swap(site, job.ID, start) {
		log.Info("newer site already installed")
		w.finish(job, StatusUnchanged, "superseded", elapsed)
		return
	}
	metricSiteNodes.Set(float64(st.Nodes))
	metricSiteSymbols.Set(float64(st.Symbols))

	if len(site.Missing) > 0 {
		for _, name := range site.Missing {
			job.AddError("missing " + name)
		}
		log.Warn("site loaded with missing files", "missing", site.Missing)
		w.finish(job, StatusPartial, "done", elapsed)
		return
	}
	log.Info("site installed", "fingerprint", site.Fingerprint, "duration_ms", elapsed.Milliseconds())
	w.finish(job, StatusCompleted, "done", elapsed)
}

func (w *Worker) finish(job *Job, status JobStatus, phase string, elapsed time.Duration) {
	w.stats.Record(elapsed, status)
	metricLoadsTotal.WithLabelValues(string(status)).Inc()
	metricLoadDuration.Observe(elapsed.Seconds())
	job.SetStatus(status, phase)
}

func phaseStatus(p loader.Phase) JobStatus {
	switch p {
	case loader.PhaseParsing:
		return StatusParsing
	case loader.PhaseResolving:
		return StatusResolving
	default:
		return StatusIndexing
	}
}
