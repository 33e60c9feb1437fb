package scraper

import (
	"context"
	"errors"
	"strings"

	"igserve/pkg/auth"
	"igserve/pkg/config"
	apperrors "igserve/pkg/errors"
	"igserve/pkg/instagram"
	"igserve/pkg/logger"
	"igserve/pkg/models"
)

// Mode selects whether a fetch uses a logged-in session
type Mode string

const (
	ModeAnonymous     Mode = "anonymous"
	ModeAuthenticated Mode = "authenticated"
)

// Credentials identify the Instagram account used for authenticated fetches
type Credentials struct {
	Username string
	Password string
}

// Service resolves Instagram post URLs to video details
type Service struct {
	options     instagram.Options
	credentials Credentials
	sessions    auth.Store
	newClient   ClientFactory
	logger      logger.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithClientFactory replaces the function used to build Instagram clients
func WithClientFactory(factory ClientFactory) Option {
	return func(s *Service) {
		s.newClient = factory
	}
}

// New creates a Service. sessions caches logins between requests.
func New(opts instagram.Options, creds Credentials, sessions auth.Store, log logger.Logger, options ...Option) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	creds.Username = instagram.SanitizeUsername(creds.Username)

	s := &Service{
		options:     opts,
		credentials: creds,
		sessions:    sessions,
		newClient:   defaultClientFactory,
		logger:      log,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// NewFromConfig creates a Service from the instagram section of cfg
func NewFromConfig(cfg *config.InstagramConfig, sessions auth.Store, log logger.Logger) *Service {
	return New(
		instagram.Options{
			BaseURL:   cfg.BaseURL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		},
		Credentials{Username: cfg.Username, Password: cfg.Password},
		sessions,
		log,
	)
}

// FetchVideo looks up the post behind rawURL and returns its video.
// Each call makes a single attempt; nothing is retried.
func (s *Service) FetchVideo(ctx context.Context, rawURL string, mode Mode) (*models.Video, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, apperrors.MissingInput("URL is required")
	}

	shortcode, ok := instagram.ExtractShortcode(rawURL)
	if !ok {
		return nil, apperrors.InvalidURL("Invalid Instagram URL")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"shortcode": shortcode,
		"mode":      string(mode),
	})

	client, err := s.newClient(s.options, log)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to create Instagram client", err)
	}

	if mode == ModeAuthenticated {
		if err := s.ensureSession(ctx, client, log); err != nil {
			return nil, err
		}
	}

	media, err := client.FetchPost(ctx, shortcode)
	if err != nil {
		log.WithError(err).Warn("instagram fetch failed")
		return nil, apperrors.Wrap(apperrors.ErrorTypeFetch, "Failed to fetch Instagram post", err)
	}

	if !media.HasVideo() {
		return nil, apperrors.NotVideo("The provided URL is not a video post")
	}

	log.InfoWithFields("resolved instagram video", map[string]interface{}{
		"author":   media.Owner.Username,
		"post_url": instagram.GetPostURL(shortcode),
	})

	return &models.Video{
		VideoURL: media.VideoURL,
		Caption:  media.Caption(),
		Author:   media.Owner.Username,
	}, nil
}

// Login performs a fresh login with the configured credentials and
// replaces any cached session. It returns the logged-in username.
func (s *Service) Login(ctx context.Context) (string, error) {
	if err := s.requireCredentials(); err != nil {
		return "", err
	}

	log := s.logger.WithField("username", s.credentials.Username)
	client, err := s.newClient(s.options, log)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to create Instagram client", err)
	}

	if _, err := s.login(ctx, client, log); err != nil {
		return "", err
	}
	return s.credentials.Username, nil
}

// Logout drops the cached session for the configured account
func (s *Service) Logout() error {
	if err := s.requireCredentials(); err != nil {
		return err
	}
	if err := s.sessions.Delete(s.credentials.Username); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to delete session", err)
	}
	return nil
}

// ensureSession applies the cached session for the configured account,
// logging in and caching a new one when none is usable
func (s *Service) ensureSession(ctx context.Context, client InstagramClient, log logger.Logger) error {
	if err := s.requireCredentials(); err != nil {
		return err
	}

	blob, err := s.sessions.Get(s.credentials.Username)
	if err == nil {
		session, err := instagram.UnmarshalSession(blob)
		if err == nil {
			client.ApplySession(session)
			log.Debug("using cached instagram session")
			return nil
		}
		log.WithError(err).Warn("cached instagram session unreadable, logging in again")
	} else if !errors.Is(err, auth.ErrSessionNotFound) {
		log.WithError(err).Warn("session store read failed, logging in again")
	}

	_, err = s.login(ctx, client, log)
	return err
}

// login authenticates the client and stores the resulting session
func (s *Service) login(ctx context.Context, client InstagramClient, log logger.Logger) (*instagram.Session, error) {
	session, err := client.Login(ctx, s.credentials.Username, s.credentials.Password)
	if err != nil {
		log.WithError(err).Error("instagram login failed")
		return nil, apperrors.Wrap(apperrors.ErrorTypeAuth, "Instagram login failed", err)
	}

	blob, err := session.Marshal()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to encode session", err)
	}
	if err := s.sessions.Put(session.Username, blob); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeInternal, "failed to store session", err)
	}

	log.Info("cached new instagram session")
	return session, nil
}

func (s *Service) requireCredentials() error {
	if s.credentials.Username == "" || s.credentials.Password == "" {
		return apperrors.MissingInput("Instagram credentials are not configured")
	}
	return nil
}
