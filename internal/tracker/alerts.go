package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/obatracker-data/internal/common/discord"
	"github.com/obatracker-data/internal/common/logger"
)

// DiscordAlerter forwards situation alerts to a Discord webhook.
type DiscordAlerter struct {
	client *discord.Client
	logger logger.Logger
}

func NewDiscordAlerter(client *discord.Client, log logger.Logger) *DiscordAlerter {
	return &DiscordAlerter{client: client, logger: log}
}

// SituationAlert posts one embed for a newly appeared situation. Failures
// are logged and swallowed; alerting must never disturb polling.
func (a *DiscordAlerter) SituationAlert(ctx context.Context, stopLabel string, s Situation) {
	description := renderSituation(s)
	if description == "" {
		description = sanitizeLine(s.Description)
	}

	embed := discord.Embed{
		Title:       fmt.Sprintf("Service alert: %s", stopLabel),
		Description: description,
		Color:       discord.SeverityColor(s.Severity),
		Timestamp:   time.Now().UTC(),
	}
	if s.Severity != "" {
		embed.Fields = append(embed.Fields, discord.Field{
			Name:   "Severity",
			Value:  s.Severity,
			Inline: true,
		})
	}
	if s.Reason != "" {
		embed.Fields = append(embed.Fields, discord.Field{
			Name:   "Reason",
			Value:  s.Reason,
			Inline: true,
		})
	}

	msg := discord.WebhookMessage{Embeds: []discord.Embed{embed}}
	if err := a.client.SendMessage(ctx, msg); err != nil {
		a.logger.Warn("Failed to send situation alert",
			"stop", stopLabel,
			"situation", s.ID,
			"error", err)
	}
}
