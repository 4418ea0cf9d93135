package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"ranktracker/internal/config"
	"ranktracker/internal/domain"
	"ranktracker/internal/fetch"
	"ranktracker/internal/monitoring"
	"ranktracker/internal/rank"
)

// PageSource supplies the parsed content of one (keyword, page) results
// page. Implementations may block on network I/O; the tracker core itself
// only computes.
type PageSource interface {
	FetchPage(ctx context.Context, keyword string, page int) (domain.PageSnapshot, error)
}

// RunStore persists run status and resolved rows.
type RunStore interface {
	SaveRunStatus(ctx context.Context, keyword, status, failReason string) error
	SaveRows(ctx context.Context, rows []domain.ResultRow) error
}

// Bookkeeper tracks recently-run keywords and failure counts.
type Bookkeeper interface {
	IsRecentlyTracked(ctx context.Context, keyword string) (bool, error)
	MarkAsTracked(ctx context.Context, keyword string, ttl time.Duration) error
	IncrementRetryCount(ctx context.Context, keyword string) (int64, error)
	ClearRetryCount(ctx context.Context, keyword string) error
}

// Exporter receives each run's resolved rows, e.g. for CSV output.
type Exporter interface {
	Export(rows []domain.ResultRow) error
}

// Tracker manages the worker pool running keyword crawls. Keywords run in
// parallel, each with its own accumulator; the pages of one keyword are
// always processed strictly in order because cumulative ranks depend on the
// counts of every earlier page.
type Tracker struct {
	config     *config.Config
	source     PageSource
	store      RunStore
	books      Bookkeeper
	exporter   Exporter
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	classifier *rank.Classifier
	mode       rank.Mode
	taskQueue  chan domain.KeywordTask
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

func New(cfg *config.Config, source PageSource, store RunStore, books Bookkeeper, exporter Exporter, m *monitoring.Metrics, l *zap.Logger) *Tracker {
	return &Tracker{
		config:     cfg,
		source:     source,
		store:      store,
		books:      books,
		exporter:   exporter,
		metrics:    m,
		logger:     l,
		classifier: rank.NewClassifier(float64(cfg.ProximityThreshold)),
		mode:       rank.ParseMode(cfg.RankMode),
		taskQueue:  make(chan domain.KeywordTask, cfg.TrackWorkers*2),
		stopChan:   make(chan struct{}),
	}
}

func (t *Tracker) Start() {
	for i := 0; i < t.config.TrackWorkers; i++ {
		t.wg.Add(1)
		go t.worker()
	}
}

func (t *Tracker) Stop() {
	close(t.stopChan)
	close(t.taskQueue)
	t.wg.Wait()
}

func (t *Tracker) Submit(task domain.KeywordTask) {
	t.taskQueue <- task
}

func (t *Tracker) worker() {
	defer t.wg.Done()
	for {
		select {
		case task, ok := <-t.taskQueue:
			if !ok {
				return
			}
			t.processKeyword(task)
		case <-t.stopChan:
			return
		}
	}
}

func (t *Tracker) processKeyword(task domain.KeywordTask) {
	timeout := time.Duration(t.config.MaxPages*(t.config.FetchTimeout+t.config.PageDelay)+30) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if !task.Force {
		recent, err := t.books.IsRecentlyTracked(ctx, task.Keyword)
		if err != nil {
			t.logger.Error("failed to check tracked status", zap.String("keyword", task.Keyword), zap.Error(err))
		}
		if recent {
			t.logger.Info("skipping recently tracked keyword", zap.String("keyword", task.Keyword))
			return
		}
	}

	if err := t.store.SaveRunStatus(ctx, task.Keyword, "processing", ""); err != nil {
		t.logger.Error("failed to mark run as processing", zap.String("keyword", task.Keyword), zap.Error(err))
	}

	rows, err := t.Run(ctx, task)
	if err != nil {
		t.handleFailure(ctx, task.Keyword, err)
		return
	}

	found := 0
	for _, r := range rows {
		if r.Found {
			found++
			t.metrics.IncTargetsResolved("found")
		} else {
			t.metrics.IncTargetsResolved("not_found")
		}
	}
	t.logger.Info("keyword run completed",
		zap.String("keyword", task.Keyword),
		zap.Int("targets", len(rows)),
		zap.Int("found", found))

	if err := t.store.SaveRows(ctx, rows); err != nil {
		t.logger.Error("failed to save rows", zap.String("keyword", task.Keyword), zap.Error(err))
		t.metrics.IncErrorsTotal("db_save_failed")
	}
	if err := t.store.SaveRunStatus(ctx, task.Keyword, "completed", ""); err != nil {
		t.logger.Error("failed to mark run as completed", zap.String("keyword", task.Keyword), zap.Error(err))
	}
	if t.exporter != nil {
		if err := t.exporter.Export(rows); err != nil {
			t.logger.Error("failed to export rows", zap.String("keyword", task.Keyword), zap.Error(err))
			t.metrics.IncErrorsTotal("export_failed")
		}
	}

	ttl := time.Duration(t.config.DeduplicationHours) * time.Hour
	_ = t.books.MarkAsTracked(ctx, task.Keyword, ttl)
	_ = t.books.ClearRetryCount(ctx, task.Keyword)
}

// Run crawls one keyword's result pages in order and resolves the tracked
// identifiers. It returns an error only when no page at all could be
// retrieved; once the first page is in, later fetch failures end the crawl
// and whatever was folded still resolves.
func (t *Tracker) Run(ctx context.Context, task domain.KeywordTask) ([]domain.ResultRow, error) {
	acc := rank.NewAccumulator(t.mode, task.ASINs)

	for page := 1; page <= t.config.MaxPages; page++ {
		snap, err := t.source.FetchPage(ctx, task.Keyword, page)
		if err != nil {
			t.metrics.IncErrorsTotal(errorType(err))
			if acc.PagesFolded() == 0 {
				return nil, err
			}
			t.logger.Warn("page fetch failed mid-crawl, resolving with folded pages",
				zap.String("keyword", task.Keyword), zap.Int("page", page), zap.Error(err))
			break
		}
		t.metrics.IncPagesFetched()

		ranks := rank.RankPage(t.classifier, snap.Items, snap.Labels, page)
		for _, r := range ranks {
			t.metrics.IncItemsClassified(string(r.Placement))
		}
		acc.FoldPage(page, ranks)
		t.logger.Info("page folded",
			zap.String("keyword", task.Keyword),
			zap.Int("page", page),
			zap.Int("items", len(ranks)))

		if acc.AllFound() {
			t.logger.Info("all targets found", zap.String("keyword", task.Keyword), zap.Int("page", page))
			break
		}
		if snap.LastPage {
			t.logger.Info("no more result pages", zap.String("keyword", task.Keyword), zap.Int("page", page))
			break
		}
		if page < t.config.MaxPages {
			if err := sleep(ctx, time.Duration(t.config.PageDelay)*time.Second); err != nil {
				return nil, err
			}
		}
	}

	return rank.Resolve(task.Keyword, task.ASINs, acc, time.Now()), nil
}

func (t *Tracker) handleFailure(ctx context.Context, keyword string, runErr error) {
	t.logger.Warn("keyword run failed", zap.String("keyword", keyword), zap.Error(runErr))

	retryCount, err := t.books.IncrementRetryCount(ctx, keyword)
	if err != nil {
		t.logger.Error("failed to increment retry count", zap.String("keyword", keyword), zap.Error(err))
		return
	}
	if retryCount >= int64(t.config.MaxRetries) {
		t.logger.Error("max retries reached, marking as failed", zap.String("keyword", keyword))
		if err := t.store.SaveRunStatus(ctx, keyword, "failed", runErr.Error()); err != nil {
			t.logger.Error("failed to mark run as failed", zap.String("keyword", keyword), zap.Error(err))
		}
	} else {
		t.logger.Info("keyword will be retried later",
			zap.String("keyword", keyword), zap.Int64("attempt", retryCount))
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, fetch.ErrBotDetected):
		return "bot_detected"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "fetch_failed"
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
