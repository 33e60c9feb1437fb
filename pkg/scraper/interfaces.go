package scraper

import (
	"context"

	"igserve/pkg/instagram"
	"igserve/pkg/logger"
)

// InstagramClient defines the Instagram operations the service relies on
type InstagramClient interface {
	ApplySession(s *instagram.Session)
	Login(ctx context.Context, username, password string) (*instagram.Session, error)
	FetchPost(ctx context.Context, shortcode string) (*instagram.Media, error)
}

// ClientFactory creates a fresh client for a single request
type ClientFactory func(opts instagram.Options, log logger.Logger) (InstagramClient, error)

func defaultClientFactory(opts instagram.Options, log logger.Logger) (InstagramClient, error) {
	client, err := instagram.NewClient(opts, log)
	if err != nil {
		return nil, err
	}
	return client, nil
}
