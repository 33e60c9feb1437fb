// Package instagram is a small client for Instagram's web endpoints.
//
// A Client holds its own cookie jar and acts like a single browser
// session. It can log in with a username and password, export the
// resulting Session for storage, re-apply a stored Session later, and
// look up posts by shortcode:
//
//	client, err := instagram.NewClient(instagram.Options{}, log)
//	if err != nil {
//		return err
//	}
//	code, ok := instagram.ExtractShortcode("https://www.instagram.com/reel/C1a2B3/")
//	if !ok {
//		return errInvalidURL
//	}
//	media, err := client.FetchPost(ctx, code)
//
// Failures are returned as *Error with an ErrorType describing the cause.
package instagram
