package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const LineBaseURL = "https://api.line.me"

// LINE rejects text messages longer than this.
const lineMaxText = 5000

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type linePushRequest struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

// LineNotifier pushes text messages through the LINE Messaging API.
type LineNotifier struct {
	token  string
	client *resty.Client
}

func NewLineNotifier(baseURL, channelToken string) *LineNotifier {
	if baseURL == "" {
		baseURL = LineBaseURL
	}
	return &LineNotifier{
		token: channelToken,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
	}
}

func (n *LineNotifier) Push(ctx context.Context, recipientID, text string) error {
	if n.token == "" {
		return errors.New("line channel token is not configured")
	}
	if recipientID == "" {
		return errors.New("line recipient is required")
	}
	if r := []rune(text); len(r) > lineMaxText {
		text = string(r[:lineMaxText])
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetAuthToken(n.token).
		SetBody(linePushRequest{
			To:       recipientID,
			Messages: []lineMessage{{Type: "text", Text: text}},
		}).
		Post("/v2/bot/message/push")
	if err != nil {
		return fmt.Errorf("failed to push line message: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("line push status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}
