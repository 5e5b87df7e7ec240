package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/truthledger/internal/model"
)

// ArticleFetcher fetches and extracts a single URL.
// Failures are reported inside the returned Article, never as a nil Article.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string) *model.Article
}

// FetchJob fetches one URL of a batch
type FetchJob struct {
	Index   int
	URL     string
	Fetcher ArticleFetcher
}

// Execute executes the fetch job
func (j *FetchJob) Execute(ctx context.Context) Result {
	return &FetchResult{
		Index:   j.Index,
		Article: j.Fetcher.FetchArticle(ctx, j.URL),
	}
}

// FetchResult carries the article back with its batch position
type FetchResult struct {
	Index   int
	Article *model.Article
}

// GetError returns the fetch error recorded on the article
func (r *FetchResult) GetError() error {
	if r.Article == nil {
		return nil
	}
	return r.Article.Err
}

// BatchProcessor fetches a list of URLs on a worker pool
type BatchProcessor struct {
	fetcher     ArticleFetcher
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(fetcher ArticleFetcher, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{
		fetcher:     fetcher,
		concurrency: concurrency,
	}
}

// ProcessURLs fetches every URL and returns the articles in input order.
// A URL whose job never ran (cancelled context) gets a fetch_error article.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*model.Article {
	articles := make([]*model.Article, len(urls))
	if len(urls) == 0 {
		return articles
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, url := range urls {
			if !pool.Submit(&FetchJob{Index: i, URL: url, Fetcher: b.fetcher}) {
				break
			}
		}
		pool.Close()
	}()

	for result := range pool.Results() {
		fr := result.(*FetchResult)
		articles[fr.Index] = fr.Article
	}

	for i, article := range articles {
		if article == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("fetch skipped")
			}
			articles[i] = &model.Article{
				URL:        urls[i],
				Title:      model.DefaultTitle,
				Status:     model.FetchError,
				Err:        err,
				ErrMessage: err.Error(),
			}
		}
	}

	return articles
}

// ParseURLs reads URLs one per line, skipping blanks and '#' comments.
// Duplicates are dropped, first occurrence wins.
func ParseURLs(r io.Reader) ([]string, error) {
	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan urls: %w", err)
	}

	return urls, nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ParseURLs(file)
}

// NormalizeURLs applies the ParseURLs rules to an in-memory list
func NormalizeURLs(urls []string) []string {
	parsed, _ := ParseURLs(strings.NewReader(strings.Join(urls, "\n")))
	return parsed
}
