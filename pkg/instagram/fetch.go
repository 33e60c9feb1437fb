package instagram

import (
	"context"
	"net/http"
)

// FetchPost looks up a post by shortcode
func (c *Client) FetchPost(ctx context.Context, shortcode string) (*Media, error) {
	log := c.logger.WithField("shortcode", shortcode)
	log.Debug("fetching post")

	var response PostResponse
	if err := c.getJSON(ctx, c.endpoint(GraphQLEndpoint, PostQueryValues(shortcode)), &response); err != nil {
		log.WithError(err).Error("failed to fetch post")
		return nil, err
	}

	if response.RequiresToLogin {
		log.Warn("authentication required for post")
		return nil, &Error{
			Type:    ErrorTypeAuth,
			Message: "Instagram requires authentication to view this post",
			Code:    http.StatusUnauthorized,
		}
	}

	media := response.Data.Media()
	if media == nil {
		log.Warn("post not found")
		return nil, &Error{
			Type:    ErrorTypeNotFound,
			Message: "post not found",
			Code:    http.StatusOK,
		}
	}

	log.DebugWithFields("fetched post", map[string]interface{}{
		"is_video": media.IsVideo,
		"owner":    media.Owner.Username,
	})

	return media, nil
}
