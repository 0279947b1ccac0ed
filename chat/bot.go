package chat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"github.com/tunebridge/backend/convert"
	"github.com/tunebridge/backend/db"
	"github.com/tunebridge/backend/telemetry"
)

// Bot watches Twitch chat for music links and replies with converted ones.
type Bot struct {
	Username   string
	OAuthToken string
	Channels   []string

	DB        *sql.DB // optional; nil disables per-channel subscription state
	Converter *convert.Converter

	client *twitch.Client
}

// StartLinkBot connects the bot and blocks until ctx is canceled or the
// connection fails.
func (b *Bot) StartLinkBot(ctx context.Context) error {
	if b.Username == "" || b.OAuthToken == "" {
		return fmt.Errorf("twitch bot credentials not set")
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("no channels configured")
	}

	logger := slog.Default().With(slog.String("component", "chat"))

	b.client = twitch.NewClient(b.Username, b.OAuthToken)
	b.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		b.handleMessage(ctx, msg)
	})
	b.client.OnConnect(func() {
		logger.Info("connected to twitch chat", slog.Int("channels", len(b.Channels)))
	})

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := b.client.Disconnect(); err != nil {
			logger.Warn("twitch disconnect error", slog.Any("err", err))
		}
		close(done)
	}()

	b.client.Join(b.Channels...)
	err := b.client.Connect()
	select {
	case <-done:
		return nil
	default:
	}
	if err != nil {
		return fmt.Errorf("twitch chat connect: %w", err)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg twitch.PrivateMessage) {
	if telemetry.ChatMessagesSeen != nil {
		telemetry.ChatMessagesSeen.Inc()
	}
	// Never react to our own messages
	if strings.EqualFold(msg.User.Name, b.Username) {
		return
	}

	if cmd := ParseCommand(msg.Message); cmd != CommandNone {
		b.handleCommand(ctx, msg, cmd)
		return
	}

	enabled, err := b.channelEnabled(ctx, msg.Channel)
	if err != nil {
		slog.Warn("subscription check failed", slog.String("channel", msg.Channel), slog.Any("err", err))
		return
	}
	if !enabled {
		return
	}

	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	reply, ok := b.Converter.HandleMessage(ctx, msg.Channel, msg.User.Name, msg.Message)
	if !ok {
		return
	}
	b.say(msg.Channel, reply)
}

func (b *Bot) handleCommand(ctx context.Context, msg twitch.PrivateMessage, cmd Command) {
	if !IsPrivileged(msg) {
		return
	}
	logger := telemetry.LoggerWithCorr(ctx).With(
		slog.String("component", "chat"),
		slog.String("channel", msg.Channel),
		slog.String("user", msg.User.Name))

	switch cmd {
	case CommandOn:
		if b.DB != nil {
			if err := db.SubscribeChannel(ctx, b.DB, msg.Channel, msg.User.Name); err != nil {
				logger.Warn("failed to subscribe channel", slog.Any("err", err))
				b.say(msg.Channel, "Couldn't enable link conversion, try again later.")
				return
			}
		}
		logger.Info("channel subscribed")
		b.say(msg.Channel, "Link conversion enabled. Drop a Spotify, Apple Music or YouTube link and I'll find it on the other platforms.")
	case CommandOff:
		if b.DB != nil {
			if err := db.UnsubscribeChannel(ctx, b.DB, msg.Channel, msg.User.Name); err != nil {
				logger.Warn("failed to unsubscribe channel", slog.Any("err", err))
				b.say(msg.Channel, "Couldn't disable link conversion, try again later.")
				return
			}
		}
		logger.Info("channel unsubscribed")
		b.say(msg.Channel, "Link conversion disabled.")
	case CommandStatus:
		enabled, err := b.channelEnabled(ctx, msg.Channel)
		if err != nil {
			logger.Warn("failed to read channel status", slog.Any("err", err))
			return
		}
		if enabled {
			b.say(msg.Channel, "Link conversion is enabled in this channel.")
		} else {
			b.say(msg.Channel, "Link conversion is disabled in this channel. Use !tunebridge on to enable it.")
		}
	}
}

// channelEnabled checks the subscription state for a channel. Without a
// database every joined channel counts as enabled.
func (b *Bot) channelEnabled(ctx context.Context, channel string) (bool, error) {
	if b.DB == nil {
		return true, nil
	}
	return db.IsChannelSubscribed(ctx, b.DB, channel)
}

// say sends a reply, splitting multi-line conversion replies into one IRC
// message per line.
func (b *Bot) say(channel, text string) {
	if b.client == nil {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.client.Say(channel, line)
	}
	if telemetry.ChatRepliesSent != nil {
		telemetry.ChatRepliesSent.Inc()
	}
}
