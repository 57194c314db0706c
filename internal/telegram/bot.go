package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"nutriplan/internal/clipper"
	"nutriplan/internal/config"
	"nutriplan/internal/metrics"
	"nutriplan/internal/planner"
	"nutriplan/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API, planner, clipper and the persistence gateway.
type Bot struct {
	api          *tgbotapi.BotAPI
	planner      *planner.Planner
	clipper      *clipper.Clipper
	gateway      *store.Gateway
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	mealPlanner *planner.Planner,
	ingredientClipper *clipper.Clipper,
	gateway *store.Gateway,
	metricsStore *metrics.Store,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		planner:      mealPlanner,
		clipper:      ingredientClipper,
		gateway:      gateway,
		metricsStore: metricsStore,
		cfg:          cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}

	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch {
	case msg.Text == "/metrics":
		b.handleMetricsRequest(msg)
	case msg.Text == "/saved":
		b.handleSavedRequest(msg)
	case msg.Text == "/start" || msg.Text == "/help":
		b.sendHelp(msg.Chat.ID)
	case strings.HasPrefix(msg.Text, "http://") || strings.HasPrefix(msg.Text, "https://"):
		b.handleClipperRequest(msg)
	default:
		b.handlePlannerRequest(msg)
	}
}

func (b *Bot) sendHelp(chatID int64) {
	help := "🥗 *NutriPlan*\n\n" +
		"Send me your preferences as:\n" +
		"`diet | goal | ingredients`\n\n" +
		"*Diets:* Non-Veg, Veg, Pure Vegan, Jain\n" +
		"*Goals:* Maintain Weight, Weight Loss, Muscle Gain, Improve Energy\n\n" +
		"Example:\n`Veg | Weight Loss | spinach, paneer, rice, lentils`\n\n" +
		"Send a recipe URL to extract its ingredients, or /saved to see your saved plans."
	reply := tgbotapi.NewMessage(chatID, help)
	reply.ParseMode = "Markdown"
	b.api.Send(reply)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "⛔ *Access Denied*: Admin only."))
		return
	}
	b.handleMetricsCommand(msg.Chat.ID)
}

func (b *Bot) handleClipperRequest(msg *tgbotapi.Message) {
	statusText := "✂️ *Importing ingredients...*"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	ingredients, err := b.clipper.ImportIngredients(ctx, msg.Text)
	var finalText string
	if err != nil {
		log.Printf("Error importing ingredients: %v", err)
		finalText = "❌ *Could not extract ingredients from that page.*"
	} else {
		finalText = fmt.Sprintf("✅ *Ingredients found:*\n\n%s\n\nSend `diet | goal | %s` to get a plan.", ingredients, ingredients)
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) handleSavedRequest(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plans, err := b.gateway.ListSavedPlans(ctx, telegramUserID(msg.From.ID))
	if err != nil {
		log.Printf("Error listing saved plans: %v", err)
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "❌ Error loading saved plans."))
		return
	}

	if len(plans) == 0 {
		b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "You have no saved plans yet."))
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 *Saved Plans* (newest first)\n\n")
	for i, plan := range plans {
		if i >= 5 {
			sb.WriteString(fmt.Sprintf("_...and %d more_\n", len(plans)-i))
			break
		}
		when := ""
		if plan.SavedAt != nil {
			when = plan.SavedAt.Format("2006-01-02")
		}
		sb.WriteString(fmt.Sprintf("• *%s* — %d kcal, %d meals\n_%s_\n\n", when, plan.TotalCalories, len(plan.Meals), plan.Summary))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, sb.String())
	reply.ParseMode = "Markdown"
	b.api.Send(reply)
}

func (b *Bot) handlePlannerRequest(msg *tgbotapi.Message) {
	prefs, err := parsePreferences(msg.Text)
	if err != nil {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "🤔 I couldn't read that. Send `diet | goal | ingredients` — or /help for examples.")
		reply.ParseMode = "Markdown"
		b.api.Send(reply)
		return
	}

	statusText := "🧑‍🍳 *Thinking...* \n(Checking your ingredients and building your plan)"
	replyMsg := tgbotapi.NewMessage(msg.Chat.ID, statusText)
	replyMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(replyMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	outcome, err := b.planner.Plan(ctx, prefs)

	// Record metrics even if it errored (if we have metas)
	for _, m := range outcome.Metas {
		if recErr := b.metricsStore.RecordMeta(m); recErr != nil {
			log.Printf("Warning: failed to record execution metric: %v", recErr)
		}
	}

	finalText := b.resolvePlanReply(ctx, telegramUserID(msg.From.ID), outcome, err)
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) resolvePlanReply(ctx context.Context, userID string, outcome planner.Outcome, err error) string {
	if err != nil {
		log.Printf("Error generating plan: %v", err)
		return "❌ *An error occurred while generating your plan. Please try again.*"
	}

	if outcome.Rejected {
		return fmt.Sprintf("🚫 *Ingredients don't match your diet:*\n\n%s", outcome.Reason)
	}

	if outcome.Plan == nil {
		return "😕 Sorry, I couldn't generate a meal plan. Please try again."
	}

	saved, saveErr := b.gateway.SavePlan(ctx, userID, *outcome.Plan)
	if saveErr != nil {
		log.Printf("Warning: failed to save plan for user %s: %v", userID, saveErr)
		return formatPlanMarkdown(*outcome.Plan) + "\n⚠️ _Couldn't save this plan._"
	}
	return formatPlanMarkdown(saved) + "\n💾 _Saved. Use /saved to revisit it._"
}

// parsePreferences splits "diet | goal | ingredients" into a plan request.
func parsePreferences(text string) (planner.UserPreferences, error) {
	parts := strings.SplitN(text, "|", 3)
	if len(parts) != 3 {
		return planner.UserPreferences{}, fmt.Errorf("expected 'diet | goal | ingredients', got %d parts", len(parts))
	}

	diet, err := planner.ParseDiet(parts[0])
	if err != nil {
		return planner.UserPreferences{}, err
	}
	goal, err := planner.ParseGoal(parts[1])
	if err != nil {
		return planner.UserPreferences{}, err
	}

	prefs := planner.UserPreferences{
		Diet:                 diet,
		Goal:                 goal,
		AvailableIngredients: strings.TrimSpace(parts[2]),
	}
	if err := prefs.Check(); err != nil {
		return planner.UserPreferences{}, err
	}
	return prefs, nil
}

// telegramUserID namespaces Telegram accounts so they never collide with web
// account IDs in the shared store.
func telegramUserID(id int64) string {
	return fmt.Sprintf("tg:%d", id)
}

func formatPlanMarkdown(plan planner.MealPlan) string {
	var sb strings.Builder
	sb.WriteString("🍽 *Your Meal Plan*\n\n")

	for _, meal := range plan.Meals {
		sb.WriteString(fmt.Sprintf("*%s*: %s (%d kcal)\n", meal.MealType, meal.Name, meal.Calories))
		if meal.Description != "" {
			sb.WriteString(fmt.Sprintf("_%s_\n", meal.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("🔥 *Total:* %d kcal\n\n", plan.TotalCalories))
	if plan.Summary != "" {
		sb.WriteString(fmt.Sprintf("📝 %s\n", plan.Summary))
	}
	return sb.String()
}

func (b *Bot) handleMetricsCommand(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Error fetching metrics."))
		return
	}

	health := metrics.GetSysHealth("data")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}
