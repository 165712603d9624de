package remote

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/slack-go/slack"

	"github.com/mikesmullin/slack/internal/errors"
	storepkg "github.com/mikesmullin/slack/internal/store"
)

// SlackClient implements Client against the Slack Web API.
type SlackClient struct {
	api     *slack.Client
	timeout time.Duration
}

func NewSlackClient(token string, timeout time.Duration) *SlackClient {
	return &SlackClient{
		api:     slack.New(token),
		timeout: timeout,
	}
}

func (c *SlackClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *SlackClient) UnreadChannels(ctx context.Context) ([]string, error) {
	return c.unreadConversations(ctx, []string{"public_channel", "private_channel"})
}

func (c *SlackClient) UnreadDMs(ctx context.Context) ([]string, error) {
	return c.unreadConversations(ctx, []string{"im", "mpim"})
}

func (c *SlackClient) unreadConversations(ctx context.Context, types []string) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var ids []string
	cursor := ""
	for {
		channels, next, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Types:           types,
			ExcludeArchived: true,
			Limit:           200,
			Cursor:          cursor,
		})
		if err != nil {
			return nil, errors.MapRemoteError(err)
		}
		for _, ch := range channels {
			if ch.UnreadCountDisplay > 0 || ch.UnreadCount > 0 {
				ids = append(ids, ch.ID)
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return ids, nil
}

func (c *SlackClient) History(ctx context.Context, channelID string, limit int) ([]Event, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, errors.MapRemoteError(err)
	}

	events := make([]Event, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		events = append(events, messageToEvent(channelID, msg))
	}
	return events, nil
}

func (c *SlackClient) Replies(ctx context.Context, channelID, threadTS string, limit int) ([]Event, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	msgs, _, _, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     limit,
	})
	if err != nil {
		return nil, errors.MapRemoteError(err)
	}

	events := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		ev := messageToEvent(channelID, msg)
		// The service reports the root with thread_ts == ts; canonical form
		// keeps the root flat.
		if ev.ThreadTS == ev.Timestamp {
			ev.ThreadTS = ""
		} else if ev.ThreadTS != "" {
			ev.Type = storepkg.TypeThreadReply
		}
		events = append(events, ev)
	}
	return events, nil
}

func (c *SlackClient) Mentions(ctx context.Context, limit int) ([]Event, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := slack.NewSearchParameters()
	params.Sort = "timestamp"
	params.Count = limit

	result, err := c.api.SearchMessagesContext(ctx, "to:me", params)
	if err != nil {
		return nil, errors.MapRemoteError(err)
	}

	events := make([]Event, 0, len(result.Matches))
	for _, match := range result.Matches {
		events = append(events, Event{
			ChannelID: match.Channel.ID,
			Timestamp: match.Timestamp,
			UserID:    match.User,
			Type:      storepkg.TypeMention,
			Text:      match.Text,
			Permalink: match.Permalink,
			Extra:     map[string]interface{}{"username": match.Username},
		})
	}
	return events, nil
}

func (c *SlackClient) MarkRead(ctx context.Context, channelID, ts string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.api.MarkConversationContext(ctx, channelID, ts); err != nil {
		return errors.MapRemoteError(err)
	}
	slog.Debug("Remote read cursor moved", "channel", channelID, "ts", ts)
	return nil
}

func (c *SlackClient) UserInfo(ctx context.Context, userID string) (map[string]interface{}, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, errors.MapRemoteError(err)
	}
	return toOpaqueMap(user)
}

func (c *SlackClient) ChannelInfo(ctx context.Context, channelID string) (map[string]interface{}, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	channel, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return nil, errors.MapRemoteError(err)
	}
	return toOpaqueMap(channel)
}

func messageToEvent(channelID string, msg slack.Message) Event {
	threadTS := msg.ThreadTimestamp
	if threadTS == msg.Timestamp {
		threadTS = ""
	}

	eventType := storepkg.TypeMessage
	if threadTS != "" {
		eventType = storepkg.TypeThreadReply
	}

	extra := map[string]interface{}{}
	if msg.ReplyCount > 0 {
		extra["reply_count"] = msg.ReplyCount
	}
	if msg.SubType != "" {
		extra["subtype"] = msg.SubType
	}

	return Event{
		ChannelID:   channelID,
		Timestamp:   msg.Timestamp,
		ThreadTS:    threadTS,
		UserID:      msg.User,
		Type:        eventType,
		Text:        msg.Text,
		Reactions:   toOpaqueList(msg.Reactions),
		Attachments: toOpaqueList(msg.Attachments),
		Files:       toOpaqueList(msg.Files),
		Extra:       extra,
	}
}

// toOpaqueList round-trips typed API structs through JSON so payload
// collections stay untyped dictionaries, stored verbatim.
func toOpaqueList(v interface{}) []interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out []interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func toOpaqueMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode profile")
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	return out, nil
}
