package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/discord"
)

const (
	generatedSlugLength   = 6
	maxGeneratedSlugTries = 5
)

func randomSlug() string {
	return lo.RandomString(generatedSlugLength, lo.AlphanumericCharset)
}

// shorten stores a link under a custom or generated slug. A taken custom slug fails at once;
// generated slugs are retried on collision.
func (s *Set) shorten(ctx context.Context, req Request) (discord.Message, error) {
	data := req.Interaction.Data
	rawURL, _ := data.Option("url")
	target, err := validateURL(rawURL)
	if err != nil {
		return discord.Message{}, err
	}
	custom, hasCustom := data.Option("slug")
	if hasCustom && custom != "" {
		if err := validateSlug(custom); err != nil {
			return discord.Message{}, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.deps.ShortenTimeout)
	defer cancel()

	link := domain.ShortLink{Link: target, CreatorID: req.Auth.PlatformUserID, WorkspaceID: req.Auth.WorkspaceID}
	var created domain.ShortLink
	if custom != "" {
		link.Slug = custom
		created, err = s.deps.Store.CreateShortLink(ctx, link)
		if errors.Is(err, domain.ErrDuplicate) {
			return discord.Message{}, domain.Invalid("slug", "%q is already taken, choose another one", custom)
		}
	} else {
		for attempt := 1; attempt <= maxGeneratedSlugTries; attempt++ {
			link.Slug = s.deps.NewSlug()
			created, err = s.deps.Store.CreateShortLink(ctx, link)
			if !errors.Is(err, domain.ErrDuplicate) {
				break
			}
			s.deps.Log.DebugContext(ctx, "generated slug collided", "attempt", attempt)
		}
		if errors.Is(err, domain.ErrDuplicate) {
			return discord.Message{}, &domain.ValidationError{Message: "could not generate a unique slug, please try again"}
		}
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return discord.Message{}, &domain.ValidationError{Message: fmt.Sprintf("link shortening timed out after %s, please try again", s.deps.ShortenTimeout)}
		}
		return discord.Message{}, fmt.Errorf("create short link: %w", err)
	}

	shortURL := fmt.Sprintf("%s/%s", s.deps.ShortenerBaseURL, created.Slug)
	return discord.Text(fmt.Sprintf("🔗 **Short link created**\n**Slug:** `%s`\n**Short URL:** %s\n**Target:** <%s>", created.Slug, shortURL, created.Link)), nil
}
