// Package telegram is the interactive surface over the shared advisor:
// users ask for a district and get per-season crop recommendations back.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/agrisense/crop-advisor/internal/advisor"
	"github.com/agrisense/crop-advisor/internal/cropinfo"
	"github.com/agrisense/crop-advisor/internal/season"
)

// Bot answers crop and weather queries over Telegram.
type Bot struct {
	api      *tgbotapi.BotAPI
	advisor  *advisor.Advisor
	disabled bool
}

// NewBot creates a Telegram bot over the advisor. If token is empty, returns
// a no-op bot that logs instead of sending, so the rest of the process can
// run without credentials.
func NewBot(token string, a *advisor.Advisor) (*Bot, error) {
	if token == "" {
		log.Println("[telegram] no token provided, running in disabled mode (logging only)")
		return &Bot{advisor: a, disabled: true}, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	log.Printf("[telegram] authorized as @%s", api.Self.UserName)

	return &Bot{api: api, advisor: a}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.disabled {
		return fmt.Errorf("telegram bot is disabled (no token)")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			reply := b.Handle(ctx, update.Message.Text)
			if err := b.send(update.Message.Chat.ID, reply); err != nil {
				log.Printf("[telegram] failed to send reply: %v", err)
			}
		}
	}
}

// Handle dispatches one incoming message text and returns the reply.
func (b *Bot) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return helpText
	}

	switch strings.ToLower(fields[0]) {
	case "/start", "/help":
		return helpText
	case "/crops":
		return b.handleCrops(ctx, fields[1:])
	case "/weather":
		return b.handleWeather(ctx, fields[1:])
	default:
		return helpText
	}
}

const helpText = `Crop Advisor commands:
/crops <district> [N P K pH] - per-season crop recommendations
/weather <district> - historical seasonal weather
Soil inputs default to N=50 P=30 K=40 pH=6.5 when omitted.`

func (b *Bot) handleCrops(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /crops <district> [N P K pH]"
	}

	req := advisor.RecommendRequest{District: args[0]}
	soil := args[1:]
	ptrs := []**float64{&req.N, &req.P, &req.K, &req.PH}
	if len(soil) > len(ptrs) {
		soil = soil[:len(ptrs)]
	}
	for i, raw := range soil {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Sprintf("Bad soil value %q: expected a number", raw)
		}
		*ptrs[i] = &v
	}

	res := b.advisor.Recommend(ctx, req)
	return FormatRecommendations(args[0], res)
}

func (b *Bot) handleWeather(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Usage: /weather <district>"
	}
	w, err := b.advisor.SeasonalWeather(ctx, args[0])
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return FormatWeather(args[0], w)
}

// FormatRecommendations renders the per-season result as a Telegram message.
// Seasons skipped for lack of climate data are reported as warnings rather
// than silently dropped.
func FormatRecommendations(district string, res map[season.Season][]advisor.CropRecommendation) string {
	if len(res) == 0 {
		return fmt.Sprintf("No recommendations for %q. Check the district name.", district)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Crop recommendations for %s:\n", strings.ToUpper(strings.TrimSpace(district)))
	for _, s := range season.All() {
		recs, ok := res[s]
		if !ok {
			fmt.Fprintf(&sb, "\n%s: WARNING - no climate data, season skipped\n", s)
			continue
		}
		fmt.Fprintf(&sb, "\n%s (typically: %s)\n", s, strings.Join(cropinfo.SeasonCrops[s], ", "))
		for i, r := range recs {
			fmt.Fprintf(&sb, "%d. %s (%s) - soil: %s, fertilizer: %s\n", i+1, r.Name, r.Confidence, r.SoilType, r.Fertilizer)
		}
	}
	return sb.String()
}

// FormatWeather renders per-season weather summaries.
func FormatWeather(district string, w map[season.Season]advisor.WeatherSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Historical weather for %s:\n", strings.ToUpper(strings.TrimSpace(district)))
	for _, s := range season.All() {
		ws := w[s]
		fmt.Fprintf(&sb, "%s: %s, %s humidity, %s rainfall\n", s, ws.Temperature, ws.Humidity, ws.Rainfall)
	}
	return sb.String()
}

func (b *Bot) send(chatID int64, text string) error {
	if b.disabled {
		log.Printf("[telegram] (disabled) %s", text)
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}
