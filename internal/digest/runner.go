package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"crypto-digest-bot/internal/llm"
	"crypto-digest-bot/internal/logger"
	"crypto-digest-bot/internal/market"
	"crypto-digest-bot/internal/news"
	"crypto-digest-bot/internal/sink"
	"crypto-digest-bot/internal/snapshot"
	"crypto-digest-bot/internal/store"
)

// ErrMissingAPIKey aborts a run pre-flight, before any network call.
var ErrMissingAPIKey = errors.New("missing OpenRouter API key: set OPENROUTER_API_KEY")

// Options carries per-run switches from the command line.
type Options struct {
	Date      string // UTC date YYYYMMDD; empty = today
	APIKey    string
	DryRun    bool
	NoArchive bool
	NoNotify  bool
}

// Runner executes the full digest pipeline: market summaries, news,
// prompt composition, model fallback, and the result sinks.
type Runner struct {
	cfg      *store.Config
	market   *market.Client
	news     *news.Collector
	llm      *llm.Client
	archiver sink.Archiver
	notifier sink.Notifier
	out      io.Writer
}

// NewRunner wires the pipeline. archiver and notifier may be nil when the
// corresponding config is absent; the matching steps are then skipped.
func NewRunner(cfg *store.Config, mc *market.Client, nc *news.Collector, lc *llm.Client, archiver sink.Archiver, notifier sink.Notifier, out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{
		cfg:      cfg,
		market:   mc,
		news:     nc,
		llm:      lc,
		archiver: archiver,
		notifier: notifier,
		out:      out,
	}
}

// Run produces one digest. Symbol and feed failures are contained; only a
// missing credential, a failed snapshot read, exhausted model discovery,
// or full fallback exhaustion return an error.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	op := logger.StartOperation(ctx, "digest-run")
	ctx = op.GetContext()

	if err := r.run(ctx, opts); err != nil {
		op.EndWithError(err)
		return err
	}
	op.End()
	return nil
}

func (r *Runner) run(ctx context.Context, opts Options) error {
	if opts.APIKey == "" && !opts.DryRun {
		return ErrMissingAPIKey
	}

	date := opts.Date
	if date == "" {
		date = time.Now().UTC().Format("20060102")
	}

	source := snapshot.Resolve(r.cfg.Snapshot.Source, r.cfg.Snapshot.BaseURL, date)
	snapshotText, err := snapshot.Load(ctx, source)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	start := now.Add(-time.Duration(r.cfg.Hours) * time.Hour)

	// Output order follows the configured symbol list; failed symbols
	// are dropped, not aborted on.
	var summaries []market.SymbolSummary
	for _, symbol := range r.cfg.Symbols {
		s, err := r.market.FetchAndSummarize(ctx, symbol, start, now, r.cfg.Interval)
		if err != nil {
			logger.Warn(ctx, "Symbol fetch failed", "symbol", symbol, "error", err)
			continue
		}
		summaries = append(summaries, s)
	}

	items := r.news.Collect(ctx, start)
	logger.Info(ctx, "Inputs collected", "symbols", len(summaries), "headlines", len(items))

	block := MarketBlock(summaries, items, start, now, r.cfg.Interval)
	prompt := BuildPrompt(snapshotText, block)

	if opts.DryRun {
		fmt.Fprintln(r.out, prompt)
		return nil
	}

	models, err := r.llm.Candidates(ctx, r.cfg.LLM.Model)
	if err != nil {
		r.notifyFailure(ctx, date, opts, fmt.Sprintf("model discovery failed: %v", err))
		return err
	}
	logger.Info(ctx, "Model candidates resolved", "models", strings.Join(models, ", "))

	result, err := llm.CompleteWithFallback(ctx, r.llm, models, prompt)
	if err != nil {
		r.notifyFailure(ctx, date, opts, fmt.Sprintf("completion failed: %v", err))
		return err
	}
	logger.Info(ctx, "Used model", "model", result.Model)

	plain := llm.ToPlainText(result.Text)
	fmt.Fprintln(r.out, plain)

	if !opts.NoArchive && r.archiver != nil {
		key := fmt.Sprintf("%s/digest_%s.txt", r.cfg.R2.KeyPrefix, dashDate(date))
		if url, err := r.archiver.Archive(ctx, key, plain); err != nil {
			logger.Warn(ctx, "Archive failed", "key", key, "error", err)
		} else if url != "" {
			logger.Info(ctx, "Digest retrievable", "url", url)
		}
	}

	if !opts.NoNotify && r.notifier != nil {
		if err := r.notifier.Notify(ctx, "Daily digest "+date, plain); err != nil {
			logger.Warn(ctx, "Notification failed", "error", err)
		}
	}
	return nil
}

// notifyFailure is a best-effort push before a fatal return.
func (r *Runner) notifyFailure(ctx context.Context, date string, opts Options, msg string) {
	if opts.NoNotify || r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, "Digest failed "+date, msg); err != nil {
		logger.Warn(ctx, "Failure notification failed", "error", err)
	}
}

// dashDate converts YYYYMMDD to YYYY-MM-DD, passing through anything that
// already carries dashes or does not parse.
func dashDate(date string) string {
	if strings.Contains(date, "-") {
		return date
	}
	t, err := time.Parse("20060102", date)
	if err != nil {
		return date
	}
	return t.Format("2006-01-02")
}
