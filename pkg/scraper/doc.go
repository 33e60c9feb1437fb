// Package scraper turns Instagram post URLs into video details.
//
// A Service builds a fresh instagram.Client for every request. In
// authenticated mode it first loads the cached session for the configured
// account from an auth.Store, logging in and caching a new session when
// there is none. Session expiry is not detected; Login forces a refresh.
package scraper
