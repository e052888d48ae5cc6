// Package telegram connects the bot to Telegram over MTProto: updates are
// converted and queued per conversation, and outbound messages, callback
// answers and voice downloads go through the same client.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/omriShneor/telcal/internal/bot"
	"github.com/omriShneor/telcal/internal/cache"
	"github.com/omriShneor/telcal/internal/log"
	"github.com/omriShneor/telcal/internal/voice"
)

// ErrNotConnected is returned by calls made before the bot has logged in.
var ErrNotConnected = errors.New("telegram client not connected")

// Handler consumes converted updates.
type Handler interface {
	Handle(ctx context.Context, u bot.Update)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, u bot.Update)

func (f HandlerFunc) Handle(ctx context.Context, u bot.Update) { f(ctx, u) }

// ClientConfig holds configuration for the Telegram client
type ClientConfig struct {
	APIID       int
	APIHash     string
	BotToken    string
	SessionPath string
	Handler     Handler
	// Redis, when set, keeps peer access hashes across restarts.
	Redis *redis.Client
}

// Client is the bot's Telegram connection. It implements bot.Transport and
// voice.Downloader.
type Client struct {
	apiID       int
	apiHash     string
	botToken    string
	sessionPath string
	handler     Handler
	peers       *peerBook
	downloader  *downloader.Downloader
	logger      zerolog.Logger

	mu    sync.RWMutex
	api   *tg.Client
	queue *conversationQueue
}

// NewClient creates a new Telegram client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, fmt.Errorf("Telegram API ID and API Hash are required")
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("Telegram bot token is required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("Telegram update handler is required")
	}
	logger := log.WithComponent("telegram")
	var peers cache.Store[peerRef] = cache.NewMemory[peerRef](peerTTL)
	if cfg.Redis != nil {
		peers = cache.NewRedis[peerRef](cfg.Redis, "telcal:peer:", peerTTL, logger)
	}

	return &Client{
		apiID:       cfg.APIID,
		apiHash:     cfg.APIHash,
		botToken:    cfg.BotToken,
		sessionPath: cfg.SessionPath,
		handler:     cfg.Handler,
		peers:       newPeerBook(peers),
		downloader:  downloader.NewDownloader(),
		logger:      logger,
	}, nil
}

// peerTTL bounds how long an unseen conversation stays addressable. Every
// update refreshes it.
const peerTTL = 30 * 24 * time.Hour

// Run connects, logs in as the bot and dispatches updates until ctx is
// done. Queued updates are drained before Run returns.
func (c *Client) Run(ctx context.Context) error {
	queue := newConversationQueue(ctx, c.handler.Handle)
	c.mu.Lock()
	c.queue = queue
	c.mu.Unlock()

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(c.onNewMessage)
	dispatcher.OnBotCallbackQuery(c.onCallbackQuery)

	client := telegram.NewClient(c.apiID, c.apiHash, telegram.Options{
		SessionStorage: &FileSessionStorage{Path: c.sessionPath},
		UpdateHandler:  dispatcher,
	})

	err := client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get auth status: %w", err)
		}
		if !status.Authorized {
			if _, err := client.Auth().Bot(ctx, c.botToken); err != nil {
				return fmt.Errorf("bot login failed: %w", err)
			}
		}

		c.mu.Lock()
		c.api = client.API()
		c.mu.Unlock()
		c.logger.Info().Msg("Telegram bot connected")

		<-ctx.Done()
		return ctx.Err()
	})

	c.mu.Lock()
	c.api = nil
	c.mu.Unlock()
	queue.Wait()
	c.logger.Info().Msg("Telegram bot stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Client) client() *tg.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.api
}

func (c *Client) push(u bot.Update) {
	c.mu.RLock()
	queue := c.queue
	c.mu.RUnlock()
	if queue != nil {
		queue.Push(u)
	}
}

func (c *Client) onNewMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok {
		return nil
	}
	c.peers.Remember(ctx, e)

	u, ok := updateFromMessage(msg)
	if !ok {
		return nil
	}
	if id, err := strconv.ParseInt(u.UserID, 10, 64); err == nil && e.Users[id] != nil {
		c.logger.Debug().Str("from", displayName(e.Users[id])).Str("conversation_id", u.ConversationID).Str("kind", u.Kind()).Msg("Message received")
	}
	c.push(u)
	return nil
}

// onCallbackQuery acknowledges the press right away so the client stops
// its spinner, then queues the update.
func (c *Client) onCallbackQuery(ctx context.Context, e tg.Entities, update *tg.UpdateBotCallbackQuery) error {
	c.peers.Remember(ctx, e)

	if api := c.client(); api != nil {
		if _, err := api.MessagesSetBotCallbackAnswer(ctx, &tg.MessagesSetBotCallbackAnswerRequest{
			QueryID: update.QueryID,
		}); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to answer callback query")
		}
	}

	u, ok := updateFromCallback(update)
	if !ok {
		return nil
	}
	c.push(u)
	return nil
}

// Send delivers msg, with its inline keyboard when it has rows.
func (c *Client) Send(ctx context.Context, msg bot.Message) error {
	api := c.client()
	if api == nil {
		return ErrNotConnected
	}
	peer, err := c.peers.Resolve(ctx, msg.ConversationID)
	if err != nil {
		return err
	}

	req := &tg.MessagesSendMessageRequest{
		Peer:     peer,
		Message:  msg.Text,
		RandomID: rand.Int64(),
	}
	if len(msg.Rows) > 0 {
		req.SetReplyMarkup(inlineMarkup(msg.Rows))
	}
	if _, err := api.MessagesSendMessage(ctx, req); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", msg.ConversationID, err)
	}
	return nil
}

// DownloadVoice streams a voice attachment into w.
func (c *Client) DownloadVoice(ctx context.Context, ref voice.FileRef, w io.Writer) error {
	api := c.client()
	if api == nil {
		return ErrNotConnected
	}
	loc := &tg.InputDocumentFileLocation{
		ID:            ref.ID,
		AccessHash:    ref.AccessHash,
		FileReference: ref.FileReference,
	}
	if _, err := c.downloader.Download(api, loc).Stream(ctx, w); err != nil {
		return fmt.Errorf("failed to download voice %d: %w", ref.ID, err)
	}
	return nil
}
