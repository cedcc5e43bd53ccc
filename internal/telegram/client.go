package telegram

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"referral-ledger-go/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// NewBotApi connects to the bot API over a tuned HTTP/2 client and verifies the token.
func NewBotApi(cfg models.TelegramConfig) (*tgbotapi.BotAPI, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("missing required TELEGRAM_BOT_TOKEN")
	}

	httpClient, err := createCustomHttpClient(time.Duration(cfg.PollTimeout) * time.Second)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	botApi, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.ApiEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to bot api: %w", err)
	}
	botApi.Debug = cfg.Debug

	zap.L().Info("Authorized bot account", zap.String("username", botApi.Self.UserName))
	return botApi, nil
}

// createCustomHttpClient builds the client used for the bot API. Long polling
// holds requests open for pollTimeout, so header and total timeouts extend past it.
func createCustomHttpClient(pollTimeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: pollTimeout + 30*time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   pollTimeout + 60*time.Second,
	}, nil
}
