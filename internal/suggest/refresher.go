package suggest

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/SymbolBoard/internal/models"
)

// ErrSuperseded is returned for a request that was overtaken by a newer one.
var ErrSuperseded = errors.New("suggestion request superseded")

// Request is one recompute of the suggestion bar.
type Request struct {
	Sentence  string
	AISupport bool
	History   []models.Utterance
}

func (r Request) key() string {
	var b strings.Builder
	if r.AISupport {
		b.WriteString("1|")
	} else {
		b.WriteString("0|")
	}
	b.WriteString(r.Sentence)
	for _, u := range SortHistory(r.History) {
		b.WriteByte(0)
		b.WriteString(strconv.FormatInt(u.Timestamp, 10))
		if u.IsLocal {
			b.WriteString("L")
		}
		b.WriteByte(':')
		b.WriteString(u.Text)
	}
	return b.String()
}

// conversation is the history handed to the predictor: past utterances in
// time order followed by the sentence being composed.
func (r Request) conversation(now time.Time) []models.Utterance {
	h := SortHistory(r.History)
	return append(h, models.Utterance{
		Text:      strings.TrimSpace(r.Sentence),
		Timestamp: now.UnixMilli(),
		IsLocal:   true,
	})
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithNow overrides the clock used to stamp the sentence in progress.
func WithNow(now func() time.Time) RefresherOption {
	return func(r *Refresher) { r.now = now }
}

// WithRetryable marks predictor errors that are expected to clear up on
// their own. Those are logged at debug level instead of warn.
func WithRetryable(fn func(error) bool) RefresherOption {
	return func(r *Refresher) { r.retryable = fn }
}

// Refresher recomputes suggestions whenever the request changes. Only the
// newest request may deliver a result: starting a request cancels the
// in-flight prediction, and a result that arrives after a newer request
// started is discarded.
type Refresher struct {
	predictor Predictor
	log       *zap.Logger
	now       func() time.Time
	retryable func(error) bool

	mu      sync.Mutex
	merger  *Merger
	seq     uint64
	cancel  context.CancelFunc
	lastKey string
	last    []models.Card
	cached  bool
}

// NewRefresher creates a Refresher. predictor may be nil, in which case only
// the keyword fallback is used.
func NewRefresher(merger *Merger, predictor Predictor, log *zap.Logger, opts ...RefresherOption) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Refresher{merger: merger, predictor: predictor, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetMerger swaps the merger after the catalog changed and drops the cache.
func (r *Refresher) SetMerger(m *Merger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merger = m
	r.cached = false
}

// Refresh computes suggestions for req. It returns ErrSuperseded when a newer
// request was started before this one finished.
func (r *Refresher) Refresh(ctx context.Context, req Request) ([]models.Card, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.seq++
	seq := r.seq
	key := req.key()
	if r.cached && r.lastKey == key {
		out := append([]models.Card(nil), r.last...)
		r.mu.Unlock()
		return out, nil
	}
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	merger := r.merger
	r.mu.Unlock()
	defer cancel()

	var external []string
	if strings.TrimSpace(req.Sentence) != "" && req.AISupport && r.predictor != nil {
		ranked, err := r.predictor.Predict(cctx, req.conversation(r.now()))
		switch {
		case err == nil:
			external = ranked
		case cctx.Err() != nil && ctx.Err() == nil:
			return nil, ErrSuperseded
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case r.retryable != nil && r.retryable(err):
			r.log.Debug("external prediction unavailable, using fallback", zap.Error(err))
		default:
			r.log.Warn("external prediction failed, using fallback", zap.Error(err))
		}
	}

	cards := merger.Merge(req.Sentence, external, req.AISupport)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq {
		return nil, ErrSuperseded
	}
	r.cancel = nil
	r.lastKey = key
	r.last = cards
	r.cached = true
	return append([]models.Card(nil), cards...), nil
}

// Submit runs Refresh in the background and calls deliver with the result
// unless the request was superseded or failed.
func (r *Refresher) Submit(ctx context.Context, req Request, deliver func([]models.Card)) {
	go func() {
		cards, err := r.Refresh(ctx, req)
		if err != nil {
			if !errors.Is(err, ErrSuperseded) {
				r.log.Debug("suggestion refresh aborted", zap.Error(err))
			}
			return
		}
		deliver(cards)
	}()
}
