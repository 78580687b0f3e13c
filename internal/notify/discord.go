package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hostwatch/hostwatch/internal/config"
	"github.com/hostwatch/hostwatch/pkg/types"
)

const (
	discordName = "discord"

	// EnvDiscordWebhookURL is the full Discord webhook URL.
	EnvDiscordWebhookURL = "DISCORD_WEBHOOK_URL"

	colorAvailable = 0x2ECC71
	colorEmpty     = 0x95A5A6
)

// Discord delivers the CheckResult as a Discord webhook embed, one field
// per available server.
type Discord struct {
	webhookURL string
	client     *http.Client
}

// DiscordOption configures a Discord notifier.
type DiscordOption func(*Discord)

// WithDiscordHTTPClient overrides the default HTTP client.
func WithDiscordHTTPClient(c *http.Client) DiscordOption {
	return func(d *Discord) { d.client = c }
}

// NewDiscord creates a Discord notifier.
func NewDiscord(webhookURL string, opts ...DiscordOption) (*Discord, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, &types.ConfigError{
			Name: EnvDiscordWebhookURL,
			Err:  fmt.Errorf("webhook URL must not be empty"),
		}
	}
	d := &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewDiscordFromEnv builds the notifier from environment variables.
func NewDiscordFromEnv() (Notifier, error) {
	webhookURL, err := config.Env(EnvDiscordWebhookURL)
	if err != nil {
		return nil, err
	}
	return NewDiscord(webhookURL)
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func buildEmbed(result *types.CheckResult) discordEmbed {
	embed := discordEmbed{
		Title: fmt.Sprintf("Server availability for %s", result.ProviderName),
		Color: colorAvailable,
	}
	if len(result.AvailableServers) == 0 {
		embed.Color = colorEmpty
		embed.Description = "No server available for the selected types."
		return embed
	}
	for _, server := range result.AvailableServers {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:   server,
			Value:  "available",
			Inline: true,
		})
	}
	return embed
}

// Name implements Notifier.
func (d *Discord) Name() string { return discordName }

// Notify implements Notifier.
func (d *Discord) Notify(ctx context.Context, result *types.CheckResult) error {
	payload := discordWebhookPayload{Embeds: []discordEmbed{buildEmbed(result)}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &types.APIError{Endpoint: discordName, Status: resp.StatusCode, Message: "rate limited"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			respBody = []byte("(body unreadable)")
		}
		return &types.APIError{
			Endpoint: discordName,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(respBody)),
		}
	}
	return nil
}

// Test implements Notifier.
func (d *Discord) Test(ctx context.Context) error {
	return d.Notify(ctx, types.Dummy())
}
