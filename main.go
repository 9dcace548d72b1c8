package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"slixk-casino/cogs"
	"slixk-casino/games/blackjack"
	"slixk-casino/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var (
	session   *discordgo.Session
	registry  *blackjack.Registry
	botLedger utils.Ledger
	botStatus = "starting"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	go startHealthServer(cfg.Port)

	if err := utils.SetupDatabase(cfg.DatabaseURL); err != nil {
		log.Printf("Database setup failed: %v", err)
		log.Println("Bot will continue on the in-memory ledger")
	} else if utils.DB != nil {
		log.Println("Database connected successfully")
		defer utils.CloseDatabase()
	}

	utils.InitializeCache(utils.UserCacheTTL)
	defer utils.CloseCache()

	if utils.DB != nil {
		botLedger = utils.NewPostgresLedger()
	} else {
		log.Println("No DATABASE_URL set - balances will not survive restarts")
		botLedger = utils.NewMemoryLedger()
	}

	registry = blackjack.NewRegistry(botLedger, cfg.MinBet, cfg.IdleTimeout)
	registry.StartSweep()
	defer registry.Close()

	cogs.InitializeBlackjack(registry, botLedger)

	if cfg.BotToken == "" {
		log.Println("BOT_TOKEN not set - Discord bot will not connect")
		botStatus = "no_token"
		select {}
	}

	session, err = discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Printf("Failed to create Discord session: %v", err)
		botStatus = "error"
		select {}
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages

	session.AddHandler(onReady)
	session.AddHandler(onInteractionCreate)
	session.AddHandler(onButtonInteraction)

	if err := session.Open(); err != nil {
		log.Printf("Failed to open Discord connection: %v", err)
		botStatus = "connection_failed"
		select {}
	}
	defer session.Close()

	log.Println("Bot is now running. Press CTRL+C to exit.")
	botStatus = "running"

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	log.Println("Gracefully shutting down...")
	botStatus = "shutting_down"
}

func onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s (ID: %s)", event.User.Username, event.User.ID)
	botStatus = "online"

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: "Blackjack at Slixk's Casino",
				Type: discordgo.ActivityTypeGame,
			},
		},
		Status: "online",
	}); err != nil {
		log.Printf("Failed to update status: %v", err)
	}

	if err := registerSlashCommands(s); err != nil {
		log.Printf("Failed to register slash commands: %v", err)
	}
}

func registerSlashCommands(s *discordgo.Session) error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check bot latency and status",
		},
		{
			Name:        "balance",
			Description: "Check your current chip balance",
		},
		{
			Name:        "profile",
			Description: "View your casino profile and stats",
		},
		cogs.RegisterBlackjackCommands(),
	}

	for _, command := range commands {
		_, err := s.ApplicationCommandCreate(s.State.User.ID, "", command)
		if err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}

	log.Printf("Successfully registered %d slash commands", len(commands))
	return nil
}

func onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "ping":
		handlePingCommand(s, i)
	case "balance":
		handleBalanceCommand(s, i)
	case "profile":
		handleProfileCommand(s, i)
	case "blackjack":
		cogs.HandleBlackjackCommand(s, i)
	}
}

func onButtonInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	if len(customID) > 10 && customID[:10] == "blackjack_" {
		cogs.HandleBlackjackInteraction(s, i)
	}
}

func handlePingCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	latency := s.HeartbeatLatency()

	embed := utils.CreateBrandedEmbed("🏓 Pong!", "", utils.BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Latency", Value: fmt.Sprintf("%dms", latency.Milliseconds()), Inline: true},
		{Name: "Status", Value: "✅ Online", Inline: true},
	}

	if err := utils.SendInteractionResponse(s, i, embed, nil, false); err != nil {
		log.Printf("Failed to respond to ping: %v", err)
	}
}

func handleBalanceCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, err := utils.ParseUserID(i.Member.User.ID)
	if err != nil {
		return
	}
	username := i.Member.User.Username

	var chips int64
	if utils.DB != nil {
		user, err := utils.GetCachedUser(context.Background(), userID)
		if err != nil {
			respondDatabaseError(s, i)
			return
		}
		chips = user.Chips
	} else {
		chips, err = botLedger.Balance(context.Background(), userID)
		if err != nil {
			respondDatabaseError(s, i)
			return
		}
	}

	if err := utils.SendInteractionResponse(s, i, utils.BalanceEmbed(username, chips), nil, false); err != nil {
		log.Printf("Failed to respond to balance: %v", err)
	}
}

func handleProfileCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID, err := utils.ParseUserID(i.Member.User.ID)
	if err != nil {
		return
	}
	username := i.Member.User.Username

	user, err := utils.GetCachedUser(context.Background(), userID)
	if err != nil {
		respondDatabaseError(s, i)
		return
	}

	if err := utils.SendInteractionResponse(s, i, utils.ProfileEmbed(username, user), nil, false); err != nil {
		log.Printf("Failed to respond to profile: %v", err)
	}
}

func respondDatabaseError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "❌ Error accessing user data. Database may be unavailable.",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Failed to send database error response: %v", err)
	}
}

func startHealthServer(port string) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Discord Bot Status: %s", botStatus)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status":     "healthy",
			"service":    "discord-bot",
			"bot_status": botStatus,
		})
	})

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		stats := map[string]int{}
		if registry != nil {
			stats = registry.Stats()
		}
		if utils.Cache != nil {
			stats["cached_users"] = utils.Cache.Size()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(stats)
	})

	log.Printf("Health server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Printf("Health server error: %v", err)
	}
}
