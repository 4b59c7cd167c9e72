package clients

import "time"

const (
	USER_AGENT = "commentpulse-client/1.0 (+https://github.com/spacesedan/commentpulse)"

	youtubeRequestTimeout = 30 * time.Second
	openAIRequestTimeout  = 60 * time.Second
)
