// Package contacts sequences the two collection pipelines and owns the
// deduplication store plus final persistence.
package contacts

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"devscout/lib/scrapers/freelancer"
	"devscout/lib/scrapers/github"
	"devscout/lib/sqliteutil"
	"devscout/services/contacts/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("devscout.services.contacts")

type Config struct {
	Query string
	// page ceiling for search pagination, 0 means unbounded
	MaxPages int
	// JSON artifact path, overwritten on every run
	OutputPath string
	// optional sqlite run archive
	DBPath string
}

type Pipeline struct {
	GitHub      *github.Client
	Marketplace *freelancer.Client
	Config      Config

	store *Store
}

func NewPipeline(gh *github.Client, marketplace *freelancer.Client, config Config) *Pipeline {
	return &Pipeline{
		GitHub:      gh,
		Marketplace: marketplace,
		Config:      config,
		store:       NewStore(),
	}
}

// Store exposes the run's deduplication store, mainly for tests.
func (p *Pipeline) Store() *Store {
	return p.store
}

func (p *Pipeline) sink() github.Sink {
	return func(email, source string) {
		if p.store.InsertEmail(email, source) {
			slog.Info("email collected", "email", email, "source", source)
		}
	}
}

// RunRepoSearch drives the repository-search pipeline: paginate a
// popularity-sorted repository search and harvest every hit. The run always
// persists whatever accumulated, including when it stops early on a
// rate-limit.
func (p *Pipeline) RunRepoSearch(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "pipeline:RunRepoSearch")
	defer span.End()
	span.SetAttributes(attribute.String("query", p.Config.Query))

	p.store.Clear()
	started := time.Now()

	pages := 0
search:
	for page := 1; p.Config.MaxPages == 0 || page <= p.Config.MaxPages; page++ {
		repos, err := p.GitHub.SearchRepos(ctx, p.Config.Query, page)
		if err != nil {
			// covers rate-limit, bad credentials and the api's hard page
			// cap, all of which end the run but keep its results
			slog.Warn("repository search stopped", "page", page, "err", err)
			span.RecordError(err)
			break
		}
		if len(repos) == 0 {
			slog.Info("repository search exhausted", "page", page)
			break
		}
		pages++
		slog.Info("harvesting search page", "page", page, "repos", len(repos))

		for _, repo := range repos {
			err := p.GitHub.HarvestRepo(ctx, repo.Owner.Login, repo.Name, p.sink())
			if errors.Is(err, github.ErrRateLimited) {
				slog.Warn("rate limited, persisting partial results")
				span.SetStatus(codes.Error, "rate limited")
				break search
			}
			if err != nil {
				slog.Warn("repository skipped", "repo", repo.FullName, "err", err)
			}
		}
	}

	return p.finish(ctx, "repos", started, pages, WriteEmailList)
}

// RunMarketplace drives the cross pipeline: crawl the marketplace for
// github usernames, then harvest each one.
func (p *Pipeline) RunMarketplace(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "pipeline:RunMarketplace")
	defer span.End()
	span.SetAttributes(attribute.String("query", p.Config.Query))

	p.store.Clear()
	started := time.Now()

	err := p.Marketplace.Crawl(ctx, p.Config.Query, p.Config.MaxPages, func(profileURL string, profile freelancer.Profile) {
		for _, username := range profile.Usernames {
			if p.store.InsertUsername(username) {
				slog.Info("github account found", "username", username, "profile", profileURL)
			}
		}
		for _, email := range profile.Emails {
			if p.store.InsertEmail(email, "marketplace profile "+profileURL) {
				slog.Info("email collected", "email", email, "source", profileURL)
			}
		}
	})
	if err != nil {
		// cancellation mid-crawl, everything gathered so far still ships
		span.RecordError(err)
		slog.Warn("crawl aborted, persisting partial results", "err", err)
		if perr := p.finish(ctx, "marketplace", started, 0, WriteRecordList); perr != nil {
			slog.Warn("failed to persist aborted run", "err", perr)
		}
		return err
	}

	succeeded, failed := 0, 0
	for _, username := range p.store.Usernames() {
		err := p.GitHub.HarvestUser(ctx, username, p.sink())
		if errors.Is(err, github.ErrRateLimited) {
			slog.Warn("rate limited, persisting partial results", "after_users", succeeded)
			span.SetStatus(codes.Error, "rate limited")
			break
		}
		if err != nil {
			failed++
			slog.Warn("user harvest failed", "username", username, "err", err)
			continue
		}
		succeeded++
	}
	slog.Info("user harvesting finished", "succeeded", succeeded, "failed", failed)

	return p.finish(ctx, "marketplace", started, 0, WriteRecordList)
}

func (p *Pipeline) finish(ctx context.Context, mode string, started time.Time, pages int, write func(string, []Record) error) error {
	records := p.store.Emails()
	usernames := p.store.Usernames()

	if err := write(p.Config.OutputPath, records); err != nil {
		return err
	}
	slog.Info("artifact written", "path", p.Config.OutputPath, "emails", len(records))

	if p.Config.DBPath != "" {
		if err := p.archive(ctx, mode, started, records, len(usernames)); err != nil {
			// the JSON artifact made it out, a broken archive only warns
			slog.Warn("failed to archive run", "path", p.Config.DBPath, "err", err)
		}
	}

	p.printSummary(mode, pages, len(records), len(usernames))
	return nil
}

func (p *Pipeline) archive(ctx context.Context, mode string, started time.Time, records []Record, usernames int) error {
	database, err := sqliteutil.OpenDB(db.Schema, p.Config.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	emails := make([]db.Email, 0, len(records))
	for _, record := range records {
		emails = append(emails, db.Email{Email: record.Email, Source: record.Source})
	}
	return db.SaveRun(ctx, database, db.Run{
		Mode:          mode,
		Query:         p.Config.Query,
		StartedAt:     started,
		FinishedAt:    time.Now(),
		EmailCount:    len(records),
		UsernameCount: usernames,
	}, emails)
}

func (p *Pipeline) printSummary(mode string, pages, emails, usernames int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"mode", "query", "pages", "usernames", "emails", "artifact"})
	t.AppendRow(table.Row{mode, p.Config.Query, pages, usernames, emails, p.Config.OutputPath})
	t.Render()
}
