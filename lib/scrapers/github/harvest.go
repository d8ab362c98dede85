package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"devscout/lib/extract"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HarvestUser runs every per-user lookup against a username and streams
// extracted emails into sink. Each lookup fails independently, only
// ErrRateLimited is returned.
func (c *Client) HarvestUser(ctx context.Context, username string, sink Sink) error {
	ctx, span := tracer.Start(ctx, "client:HarvestUser")
	defer span.End()
	span.SetAttributes(attribute.String("username", username))

	// 1. profile readme (the <user>/<user> convention repo)
	readme, err := c.fetchReadme(ctx, username, username)
	if err == nil {
		for _, email := range extract.Emails(readme) {
			sink(email, fmt.Sprintf("profile README of %s", username))
		}
	} else if errors.Is(err, ErrRateLimited) {
		return err
	} else {
		slog.Debug("no profile readme", "username", username, "err", err)
	}

	// 2. public profile email field
	var user User
	err = c.get(ctx, "/users/"+username, &user)
	if err == nil {
		if user.Email != "" {
			sink(user.Email, fmt.Sprintf("public profile of %s", username))
		}
		for _, email := range extract.Emails(user.Bio) {
			sink(email, fmt.Sprintf("bio of %s", username))
		}
	} else if errors.Is(err, ErrRateLimited) {
		return err
	} else {
		slog.Debug("profile lookup failed", "username", username, "err", err)
	}

	// 3. recent public activity, push events carry commit author info
	var events []Event
	err = c.get(ctx, fmt.Sprintf("/users/%s/events/public", username), &events)
	if err == nil {
		for _, event := range events {
			if event.Type != "PushEvent" || len(event.Payload.Commits) == 0 {
				continue
			}
			email := event.Payload.Commits[0].Author.Email
			if email != "" {
				sink(email, fmt.Sprintf("push event of %s", username))
			}
		}
	} else if errors.Is(err, ErrRateLimited) {
		return err
	} else {
		slog.Debug("event lookup failed", "username", username, "err", err)
	}

	// 4. the user's repositories
	var repos []Repo
	err = c.get(ctx, fmt.Sprintf("/users/%s/repos?per_page=%d&sort=updated", username, maxReposPerUser), &repos)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return err
		}
		slog.Debug("repo listing failed", "username", username, "err", err)
		return nil
	}
	for _, repo := range repos {
		owner := repo.Owner.Login
		if owner == "" {
			owner = username
		}
		if err := c.HarvestRepo(ctx, owner, repo.Name, sink); err != nil {
			return err
		}
	}

	return nil
}

// HarvestRepo inspects one repository coordinate: README, top contributors
// and recent commit history. Only ErrRateLimited is returned, everything
// else degrades to fewer results.
func (c *Client) HarvestRepo(ctx context.Context, owner, name string, sink Sink) error {
	ctx, span := tracer.Start(ctx, "client:HarvestRepo")
	defer span.End()
	span.SetAttributes(attribute.String("repo", owner+"/"+name))

	coordinate := owner + "/" + name

	readme, err := c.fetchReadme(ctx, owner, name)
	if err == nil {
		for _, email := range extract.Emails(readme) {
			sink(email, fmt.Sprintf("README of %s", coordinate))
		}
	} else if errors.Is(err, ErrRateLimited) {
		return err
	} else {
		slog.Debug("no readme", "repo", coordinate, "err", err)
	}

	var contributors []Contributor
	err = c.get(ctx, fmt.Sprintf("/repos/%s/%s/contributors?per_page=%d", owner, name, maxContributors), &contributors)
	if err == nil {
		for _, contributor := range contributors {
			if contributor.Login == "" {
				continue
			}
			if err := c.harvestContributor(ctx, contributor.Login, coordinate, sink); err != nil {
				return err
			}
		}
	} else if errors.Is(err, ErrRateLimited) {
		return err
	} else {
		slog.Debug("contributor lookup failed", "repo", coordinate, "err", err)
	}

	var commits []Commit
	err = c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", owner, name, maxCommitsPerRepo), &commits)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return err
		}
		slog.Debug("commit listing failed", "repo", coordinate, "err", err)
		return nil
	}
	for _, commit := range commits {
		if commit.Sha == "" {
			continue
		}
		var detail Commit
		err = c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits/%s", owner, name, commit.Sha), &detail)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				return err
			}
			slog.Debug("commit detail failed", "repo", coordinate, "sha", commit.Sha, "err", err)
			continue
		}
		if email := detail.Commit.Author.Email; email != "" {
			sink(email, fmt.Sprintf("commit author in %s", coordinate))
		}
		if email := detail.Commit.Committer.Email; email != "" {
			sink(email, fmt.Sprintf("committer in %s", coordinate))
		}
	}

	return nil
}

// shallow lookup of a contributor's profile, avoids recursing into the
// contributor's own repositories
func (c *Client) harvestContributor(ctx context.Context, username, repo string, sink Sink) error {
	ctx, span := tracer.Start(ctx, "client:harvestContributor")
	defer span.End()

	var user User
	err := c.get(ctx, "/users/"+username, &user)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			span.SetStatus(codes.Error, "rate limited")
			return err
		}
		slog.Debug("contributor profile failed", "username", username, "err", err)
		return nil
	}
	if user.Email != "" {
		sink(user.Email, fmt.Sprintf("contributor %s of %s", username, repo))
	}
	return nil
}
