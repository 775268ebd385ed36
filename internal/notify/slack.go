package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier posts transition summaries to a Slack channel.
type SlackNotifier struct {
	api     *slack.Client
	channel string
}

// NewSlackNotifier builds a notifier from a bot token and channel id.
// apiBase overrides the Slack endpoint for tests.
func NewSlackNotifier(token, channel, apiBase string) *SlackNotifier {
	client := &http.Client{Timeout: 20 * time.Second}
	opts := []slack.Option{slack.OptionHTTPClient(client)}
	if apiBase != "" {
		// The slack client concatenates endpoint names onto the base URL.
		opts = append(opts, slack.OptionAPIURL(strings.TrimRight(apiBase, "/")+"/"))
	}
	return &SlackNotifier{
		api:     slack.New(token, opts...),
		channel: channel,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Notify(ctx context.Context, ev Event) error {
	return withRetry(3, 200*time.Millisecond, func() (bool, error) {
		_, _, err := s.api.PostMessageContext(ctx, s.channel, slack.MsgOptionText(ev.Summary(), false))
		if err == nil {
			return false, nil
		}
		var rate *slack.RateLimitedError
		if errors.As(err, &rate) {
			time.Sleep(rate.RetryAfter)
			return true, err
		}
		return false, err
	})
}

// withRetry runs fn up to attempts times with exponential backoff, but only
// while fn reports the failure as retryable.
func withRetry(attempts int, baseDelay time.Duration, fn func() (retryable bool, err error)) error {
	if attempts <= 0 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		retryable, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || i == attempts-1 {
			break
		}
		time.Sleep(baseDelay * time.Duration(1<<i))
	}
	return lastErr
}
