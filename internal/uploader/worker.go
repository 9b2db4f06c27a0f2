package uploader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smukkama/weathercloud-bridge/internal/record"
	"github.com/smukkama/weathercloud-bridge/internal/wire"
)

// Enricher computes the derived quantities for one record before upload.
type Enricher interface {
	Enrich(ctx context.Context, rec *record.Archive) (*record.Archive, error)
}

// PostTracker persists the timestamp of the last attempted post so the
// post-interval throttle survives restarts.
type PostTracker interface {
	LastPost(ctx context.Context) (int64, error)
	SetLastPost(ctx context.Context, ts int64) error
}

// Notifier is told about sustained delivery failure.
type Notifier interface {
	SendUploadAlert(streak int, lastErr error) error
}

// Config holds the delivery policy for the upload worker.
type Config struct {
	ID              string
	Key             string
	ServerURL       string
	SoftwareVersion string
	SkipUpload      bool
	PostInterval    time.Duration // minimum spacing between posted records
	MaxBacklog      int           // queue depth kept after trimming; <1 = unbounded
	Stale           time.Duration // drop records older than this; 0 = never
	Timeout         time.Duration // per-attempt request timeout
	MaxTries        int
	RetryWait       time.Duration
	LogSuccess      bool
	LogFailure      bool
	AlertAfter      int // consecutive failures before notifying; 0 = never
}

// Worker is the single background consumer of the delivery queue. It
// applies the backlog, staleness, and throttling policy, enriches and
// encodes each surviving record, and delivers it with bounded retry.
// Delivery outcome is logged, never raised to the producer.
type Worker struct {
	cfg      Config
	queue    *Queue
	enricher Enricher
	fieldMap wire.FieldMap
	identity wire.Identity
	client   *http.Client
	tracker  PostTracker
	notifier Notifier

	lastPost   int64
	failStreak int
	wg         sync.WaitGroup
}

// NewWorker validates the account identity and builds a worker with the
// policy defaults filled in. A missing id or key refuses to construct:
// that is a configuration fault, not a per-record condition.
func NewWorker(cfg Config, queue *Queue, enricher Enricher) (*Worker, error) {
	if cfg.ID == "" || cfg.Key == "" {
		return nil, fmt.Errorf("weathercloud id and key are required")
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = wire.DefaultServerURL
	}
	if cfg.PostInterval <= 0 {
		cfg.PostInterval = 600 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = 3
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 5 * time.Second
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		enricher: enricher,
		fieldMap: wire.DefaultFieldMap,
		identity: wire.Identity{
			ID:              cfg.ID,
			Key:             cfg.Key,
			SoftwareVersion: cfg.SoftwareVersion,
		},
		client: &http.Client{},
	}, nil
}

// SetTracker attaches an optional last-post tracker. Must be called
// before Start.
func (w *Worker) SetTracker(t PostTracker) {
	w.tracker = t
}

// SetNotifier attaches an optional failure notifier. Must be called
// before Start.
func (w *Worker) SetNotifier(n Notifier) {
	w.notifier = n
}

// Start launches the worker loop. The loop exits when ctx is cancelled;
// call Stop afterwards to wait for it.
func (w *Worker) Start(ctx context.Context) {
	if w.tracker != nil {
		ts, err := w.tracker.LastPost(ctx)
		if err != nil {
			fmt.Printf("Failed to load last post time, starting fresh: %v\n", err)
		} else {
			w.lastPost = ts
		}
	}

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop waits for the worker loop to finish.
func (w *Worker) Stop() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		// Backlog policy: the most recent records win.
		if dropped := w.queue.TrimTo(w.cfg.MaxBacklog); dropped > 0 {
			fmt.Printf("Backlog over %d, dropped %d oldest records\n",
				w.cfg.MaxBacklog, dropped)
		}

		rec, ok := w.queue.PopWait(ctx)
		if !ok {
			return
		}

		w.process(ctx, rec)
	}
}

func (w *Worker) process(ctx context.Context, rec *record.Archive) {
	uid := uuid.New().String()[:8]

	if w.cfg.Stale > 0 {
		age := time.Now().Unix() - rec.DateTime
		if age > int64(w.cfg.Stale.Seconds()) {
			fmt.Printf("Upload %s: record is stale (%ds old), skipping\n", uid, age)
			return
		}
	}

	// Records arriving faster than the post interval are skipped, not
	// queued for later.
	if rec.DateTime-w.lastPost < int64(w.cfg.PostInterval.Seconds()) {
		fmt.Printf("Upload %s: record within post interval, skipping\n", uid)
		return
	}

	// The throttle clock advances on every attempted record, success or
	// not: a failing endpoint still sees at most one upload per interval.
	w.markPosted(ctx, rec.DateTime)

	derived, err := w.enricher.Enrich(ctx, rec)
	if err != nil {
		if derived == nil {
			if w.cfg.LogFailure {
				fmt.Printf("Upload %s: failed to enrich record: %v\n", uid, err)
			}
			return
		}
		// Best effort: upload without the failed derived fields.
		fmt.Printf("Upload %s: partial enrichment: %v\n", uid, err)
	}

	values := wire.Encode(derived, w.identity, w.fieldMap)
	requestURL := wire.RequestURL(w.cfg.ServerURL, values)

	if w.cfg.SkipUpload {
		fmt.Printf("Upload %s: skip_upload set, would send %s\n",
			uid, wire.Redact(requestURL))
		return
	}

	if err := w.deliver(ctx, requestURL); err != nil {
		if w.cfg.LogFailure {
			fmt.Printf("Upload %s: %v\n", uid, err)
		}
		w.failStreak++
		if w.notifier != nil && w.cfg.AlertAfter > 0 && w.failStreak == w.cfg.AlertAfter {
			if alertErr := w.notifier.SendUploadAlert(w.failStreak, err); alertErr != nil {
				fmt.Printf("Failed to send upload alert: %v\n", alertErr)
			}
		}
		return
	}

	w.failStreak = 0
	if w.cfg.LogSuccess {
		fmt.Printf("Upload %s: published record for %s\n",
			uid, time.Unix(rec.DateTime, 0).UTC().Format(time.RFC3339))
	}
}

// deliver performs the GET with bounded retry. Retry waits abort promptly
// on shutdown.
func (w *Worker) deliver(ctx context.Context, requestURL string) error {
	var lastErr error
	for attempt := 1; attempt <= w.cfg.MaxTries; attempt++ {
		lastErr = w.attempt(ctx, requestURL)
		if lastErr == nil {
			return nil
		}

		if attempt < w.cfg.MaxTries {
			select {
			case <-time.After(w.cfg.RetryWait):
			case <-ctx.Done():
				return fmt.Errorf("upload aborted by shutdown: %w", lastErr)
			}
		}
	}
	return fmt.Errorf("upload failed after %d tries: %w", w.cfg.MaxTries, lastErr)
}

func (w *Worker) attempt(ctx context.Context, requestURL string) error {
	reqCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func (w *Worker) markPosted(ctx context.Context, ts int64) {
	w.lastPost = ts
	if w.tracker == nil {
		return
	}
	if err := w.tracker.SetLastPost(ctx, ts); err != nil {
		fmt.Printf("Failed to persist last post time: %v\n", err)
	}
}
