package main

import (
	"fmt"

	"github.com/vk/cryptoasl/internal/appconfig"
	"github.com/vk/cryptoasl/internal/telegram"
)

// telegramSession is the outcome of authenticating one -ask request
// against the Telegram front end named by SPEC_FULL.md's supplemented
// features: which chat asked, and (when a new session was minted rather
// than validated) the token to hand back so the bot can attach it to its
// next message in the same conversation.
type telegramSession struct {
	chatID        int64
	issuedToken   string
	authenticated bool
}

// authenticateTelegramChat resolves cfg's Telegram session inputs into a
// telegramSession, per internal/telegram.SessionManager: a fresh
// TelegramChatID mints a session token for that chat, a TelegramSession
// validates one minted earlier. Neither field set returns an
// unauthenticated zero value — the CLI's bare, non-Telegram-originated
// mode of operation.
func authenticateTelegramChat(cfg *appconfig.Config) (telegramSession, error) {
	if cfg.TelegramSecret == "" {
		return telegramSession{}, nil
	}
	mgr := telegram.NewSessionManager([]byte(cfg.TelegramSecret))

	if cfg.TelegramSession != "" {
		claims, err := mgr.Validate(cfg.TelegramSession)
		if err != nil {
			return telegramSession{}, fmt.Errorf("cryptoasl: telegram session: %w", err)
		}
		return telegramSession{chatID: claims.ChatID, authenticated: true}, nil
	}

	if cfg.TelegramChatID != 0 {
		token, err := mgr.Issue(cfg.TelegramChatID, cfg.TelegramSessionTTL)
		if err != nil {
			return telegramSession{}, fmt.Errorf("cryptoasl: telegram session: %w", err)
		}
		return telegramSession{chatID: cfg.TelegramChatID, issuedToken: token, authenticated: true}, nil
	}

	return telegramSession{}, nil
}
