package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"

	"github.com/omriShneor/telcal/internal/cache"
)

// ErrUnknownPeer means a conversation id cannot be addressed because the
// bot has not seen its access hash.
var ErrUnknownPeer = errors.New("unknown telegram peer")

// Conversation ids follow the Bot API convention: users are positive, basic
// groups negative and channels carry a -100 prefix.
const channelPrefix = "-100"

type peerKind string

const (
	peerUser    peerKind = "user"
	peerChat    peerKind = "chat"
	peerChannel peerKind = "channel"
)

// peerRef is everything needed to rebuild an InputPeer.
type peerRef struct {
	Kind       peerKind `json:"kind"`
	ID         int64    `json:"id"`
	AccessHash int64    `json:"access_hash,omitempty"`
}

func (p peerRef) conversationID() string {
	switch p.Kind {
	case peerChat:
		return "-" + strconv.FormatInt(p.ID, 10)
	case peerChannel:
		return channelPrefix + strconv.FormatInt(p.ID, 10)
	default:
		return strconv.FormatInt(p.ID, 10)
	}
}

func (p peerRef) inputPeer() tg.InputPeerClass {
	switch p.Kind {
	case peerChat:
		return &tg.InputPeerChat{ChatID: p.ID}
	case peerChannel:
		return &tg.InputPeerChannel{ChannelID: p.ID, AccessHash: p.AccessHash}
	default:
		return &tg.InputPeerUser{UserID: p.ID, AccessHash: p.AccessHash}
	}
}

// conversationID maps a message peer to its conversation id.
func conversationID(peer tg.PeerClass) (string, bool) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return peerRef{Kind: peerUser, ID: p.UserID}.conversationID(), true
	case *tg.PeerChat:
		return peerRef{Kind: peerChat, ID: p.ChatID}.conversationID(), true
	case *tg.PeerChannel:
		return peerRef{Kind: peerChannel, ID: p.ChannelID}.conversationID(), true
	}
	return "", false
}

// parseConversationID is the inverse of peerRef.conversationID, without
// the access hash.
func parseConversationID(id string) (peerRef, error) {
	var kind peerKind
	digits := id
	switch {
	case strings.HasPrefix(id, channelPrefix):
		kind, digits = peerChannel, strings.TrimPrefix(id, channelPrefix)
	case strings.HasPrefix(id, "-"):
		kind, digits = peerChat, strings.TrimPrefix(id, "-")
	default:
		kind = peerUser
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return peerRef{}, fmt.Errorf("invalid conversation id %q", id)
	}
	return peerRef{Kind: kind, ID: n}, nil
}

// peerBook remembers the access hashes seen in updates so replies and admin
// relays can address any conversation the bot has heard from.
type peerBook struct {
	store cache.Store[peerRef]
}

func newPeerBook(store cache.Store[peerRef]) *peerBook {
	return &peerBook{store: store}
}

// Remember records every usable peer in the update entities. Min users
// carry an access hash that cannot be used by the bot and are skipped.
func (b *peerBook) Remember(ctx context.Context, e tg.Entities) {
	for id, u := range e.Users {
		if u.Min {
			continue
		}
		ref := peerRef{Kind: peerUser, ID: id, AccessHash: u.AccessHash}
		b.store.Set(ctx, ref.conversationID(), ref)
	}
	for id := range e.Chats {
		ref := peerRef{Kind: peerChat, ID: id}
		b.store.Set(ctx, ref.conversationID(), ref)
	}
	for id, ch := range e.Channels {
		if ch.Min {
			continue
		}
		ref := peerRef{Kind: peerChannel, ID: id, AccessHash: ch.AccessHash}
		b.store.Set(ctx, ref.conversationID(), ref)
	}
}

// Resolve returns the InputPeer for a conversation. Users and basic groups
// not seen yet are addressed without an access hash; channels need one.
func (b *peerBook) Resolve(ctx context.Context, conversationID string) (tg.InputPeerClass, error) {
	if ref, ok := b.store.Get(ctx, conversationID); ok {
		return ref.inputPeer(), nil
	}

	ref, err := parseConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	if ref.Kind == peerChannel {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPeer, conversationID)
	}
	return ref.inputPeer(), nil
}
