package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/truthledger/internal/cache"
	"github.com/ppiankov/truthledger/internal/extract"
	"github.com/ppiankov/truthledger/internal/extract/adapters"
	"github.com/ppiankov/truthledger/internal/metrics"
	"github.com/ppiankov/truthledger/internal/model"
	"github.com/ppiankov/truthledger/internal/score"
	"github.com/ppiankov/truthledger/internal/util"
	"github.com/ppiankov/truthledger/internal/worker"
	"go.uber.org/zap"
)

// ClaimSaver persists scored claim records
type ClaimSaver interface {
	SaveClaims(ctx context.Context, records []model.ClaimRecord) (saved int, warnings []error)
}

// Pipeline orchestrates fetch, extraction, scoring and storage for a batch of URLs
type Pipeline struct {
	fetcher        *Fetcher
	adapter        adapters.Adapter
	claimExtractor *extract.ClaimExtractor
	scorer         score.TruthScorer
	bias           *score.BiasRater
	saver          ClaimSaver
	workers        int
	logger         *zap.Logger
}

// NewPipeline creates a new pipeline with the given configuration.
// saver may be nil, in which case records are scored but not stored.
func NewPipeline(cfg *model.Config, saver ClaimSaver, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	adapter, err := adapters.NewRegistry(cfg.Extract.MinParagraphLength).Lookup(cfg.Extract.Strategy)
	if err != nil {
		return nil, err
	}

	scorer, err := score.NewTruthScorer(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	bias, err := score.NewBiasRater(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("load bias lexicon: %w", err)
	}

	opts := []FetcherOption{
		WithLimiter(worker.NewLimiterFromConfig(cfg.RateLimiting)),
		WithCache(cache.New(cfg.Cache)),
		WithLogger(logger),
	}
	if cfg.HTTP.RespectRobots {
		opts = append(opts, WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)))
	}

	return &Pipeline{
		fetcher:        NewFetcher(cfg.HTTP, opts...),
		adapter:        adapter,
		claimExtractor: extract.NewClaimExtractor(cfg.Extract.Keywords, cfg.Extract.MinSentenceLength),
		scorer:         scorer,
		bias:           bias,
		saver:          saver,
		workers:        max(1, cfg.Concurrency.Workers),
		logger:         logger,
	}, nil
}

// BatchReport summarizes one analyze run
type BatchReport struct {
	Articles []*model.Article    `json:"articles"`
	Records  []model.ClaimRecord `json:"records"`
	Saved    int                 `json:"saved"`
	Warnings []error             `json:"-"`
	Duration time.Duration       `json:"duration"`
}

// Failed returns the articles whose fetch or extraction failed
func (r *BatchReport) Failed() []*model.Article {
	var failed []*model.Article
	for _, a := range r.Articles {
		switch a.Status {
		case model.FetchError, model.FetchParseError, model.FetchBlocked:
			failed = append(failed, a)
		}
	}
	return failed
}

// WarningMessages returns the store warnings as strings
func (r *BatchReport) WarningMessages() []string {
	msgs := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		msgs = append(msgs, w.Error())
	}
	return msgs
}

// FetchArticle fetches one URL and extracts its title, text and claims.
// It never fails: problems are reported through the article status.
func (p *Pipeline) FetchArticle(ctx context.Context, rawURL string) *model.Article {
	article := &model.Article{
		URL:   rawURL,
		Title: model.DefaultTitle,
	}

	result, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return p.fail(article, classifyFetchError(err), err)
	}
	article.FinalURL = result.FinalURL
	article.Meta = result.Meta

	page, err := p.adapter.Extract(result.HTML, result.FinalURL)
	if err != nil {
		return p.fail(article, model.FetchParseError, err)
	}
	article.Title = page.Title
	article.Text = page.Text
	article.Claims = p.claimExtractor.Extract(page.Text)

	article.Status = model.FetchOK
	if !article.HasContent() {
		article.Status = model.FetchEmpty
	}

	p.logger.Debug("article extracted",
		zap.String("url", rawURL),
		zap.String("status", string(article.Status)),
		zap.Int("text_len", len(article.Text)),
		zap.Int("claims", len(article.Claims)),
		zap.Bool("from_cache", article.Meta.FromCache))

	return article
}

func (p *Pipeline) fail(article *model.Article, status model.FetchStatus, err error) *model.Article {
	article.Status = status
	article.Err = err
	article.ErrMessage = err.Error()
	p.logger.Warn("article skipped",
		zap.String("url", article.URL),
		zap.String("status", string(status)),
		zap.Error(err))
	return article
}

// Analyze fetches every URL once, scores the claims of each article against
// the text of the other articles in the batch and stores the records
func (p *Pipeline) Analyze(ctx context.Context, urls []string) *BatchReport {
	start := time.Now()
	urls = worker.NormalizeURLs(urls)

	p.logger.Info("analyze started", zap.Int("urls", len(urls)), zap.Int("workers", p.workers))

	articles := worker.NewBatchProcessor(p, p.workers).ProcessURLs(ctx, urls)
	report := &BatchReport{Articles: articles}

	for i, article := range articles {
		metrics.RecordArticle(string(article.Status), len(article.Claims))
		if !article.HasContent() {
			continue
		}

		bias := p.bias.Rate(article.Text)
		related := relatedTexts(articles, i)

		for _, claim := range article.Claims {
			truth := p.scorer.Score(claim.Text, related)
			metrics.RecordLabels(string(truth), string(bias))
			report.Records = append(report.Records, model.ClaimRecord{
				Title:      article.Title,
				Claim:      claim.Text,
				Source:     article.URL,
				URL:        article.URL,
				TruthScore: truth,
				BiasRating: bias,
			})
		}
	}

	if p.saver != nil && len(report.Records) > 0 {
		report.Saved, report.Warnings = p.saver.SaveClaims(ctx, report.Records)
		for _, w := range report.Warnings {
			p.logger.Warn("claim not saved", zap.Error(w))
		}
	}

	report.Duration = time.Since(start)
	metrics.RecordBatch(report.Saved, len(report.Warnings), report.Duration.Seconds())

	p.logger.Info("analyze finished",
		zap.Int("urls", len(urls)),
		zap.Int("failed", len(report.Failed())),
		zap.Int("claims", len(report.Records)),
		zap.Int("saved", report.Saved),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("duration", report.Duration))

	return report
}

// relatedTexts returns the non-empty texts of every article except skip
func relatedTexts(articles []*model.Article, skip int) []string {
	var related []string
	for i, a := range articles {
		if i == skip || a.Text == "" {
			continue
		}
		related = append(related, a.Text)
	}
	return related
}
