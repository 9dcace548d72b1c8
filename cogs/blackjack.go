package cogs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"slixk-casino/games/blackjack"
	"slixk-casino/utils"

	"github.com/bwmarrin/discordgo"
)

var (
	registry *blackjack.Registry
	ledger   utils.Ledger
)

// messageRef remembers where a player's game is being displayed so the
// idle sweeper can disable it
type messageRef struct {
	session     *discordgo.Session
	interaction *discordgo.InteractionCreate
}

var (
	gameMessages  = make(map[int64]*messageRef)
	messagesMutex sync.Mutex
)

// InitializeBlackjack wires the command handlers to the session registry
// and the chip ledger
func InitializeBlackjack(reg *blackjack.Registry, led utils.Ledger) {
	registry = reg
	ledger = led
	reg.OnExpire = onSessionExpired
}

// RegisterBlackjackCommands returns the slash command definition for
// blackjack
func RegisterBlackjackCommands() *discordgo.ApplicationCommand {
	minBet := float64(utils.MinBet)
	return &discordgo.ApplicationCommand{
		Name:        "blackjack",
		Description: "Start a game of Blackjack",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "bet",
				Description: "Chips to wager",
				Required:    true,
				MinValue:    &minBet,
			},
		},
	}
}

// HandleBlackjackCommand handles the /blackjack slash command
func HandleBlackjackCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	userID, err := utils.ParseUserID(i.Member.User.ID)
	if err != nil {
		respondWithError(s, i, "Failed to parse user ID")
		return
	}

	bet := i.ApplicationCommandData().Options[0].IntValue()

	snap, err := registry.Start(ctx, userID, bet)
	if err != nil {
		respondWithStartError(ctx, s, i, userID, bet, err)
		return
	}

	embed := snapshotEmbed(snap, 0)
	view := snapshotView(snap)

	if err := utils.SendInteractionResponse(s, i, embed, view.GetComponents(), false); err != nil {
		log.Printf("Failed to send blackjack response: %v", err)
		return
	}

	rememberMessage(userID, s, i)
	log.Printf("Started blackjack game for user %d with bet %d", userID, bet)
}

// HandleBlackjackInteraction handles button presses on a blackjack game
func HandleBlackjackInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	customID := i.MessageComponentData().CustomID

	presserID, err := utils.ParseUserID(i.Member.User.ID)
	if err != nil {
		respondWithError(s, i, "Failed to parse user ID")
		return
	}

	kind, ownerID, ok := parseCustomID(customID)
	if !ok {
		respondWithError(s, i, "Unknown blackjack action")
		return
	}

	// Only the player who opened the game may press its buttons
	if presserID != ownerID {
		respondEphemeral(s, i, utils.NotYourGameMessage)
		return
	}

	if kind == "cancel" {
		handleCancel(ctx, s, i, ownerID)
		return
	}

	action, ok := parseAction(kind)
	if !ok {
		respondWithError(s, i, "Unknown blackjack action")
		return
	}

	snap, err := registry.Act(ctx, ownerID, action)
	if err != nil {
		respondWithActionError(s, i, err)
		return
	}

	rememberMessage(ownerID, s, i)

	if snap.Phase == blackjack.PhaseResolved {
		finishGame(ctx, s, i, snap)
		return
	}

	embed := snapshotEmbed(snap, 0)
	view := snapshotView(snap)
	if err := utils.UpdateComponentInteraction(s, i, embed, view.GetComponents()); err != nil {
		log.Printf("Failed to update blackjack message: %v", err)
	}
}

// finishGame renders the settled session and records the result
func finishGame(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, snap *blackjack.Snapshot) {
	forgetMessage(snap.UserID)

	balance, err := ledger.Balance(ctx, snap.UserID)
	if err != nil {
		log.Printf("Failed to fetch balance for user %d: %v", snap.UserID, err)
	}

	profit := snap.Result.TotalCredited - snap.TotalBet
	if err := utils.RecordResult(ctx, snap.UserID, profit); err != nil {
		log.Printf("Failed to record result for user %d: %v", snap.UserID, err)
	}

	embed := snapshotEmbed(snap, balance)
	view := snapshotView(snap)
	if err := utils.UpdateComponentInteraction(s, i, embed, view.DisableAllButtons()); err != nil {
		log.Printf("Failed to update final blackjack message: %v", err)
	}
}

// handleCancel forfeits the game on the player's request
func handleCancel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, userID int64) {
	if err := registry.Cancel(ctx, userID); err != nil {
		respondWithActionError(s, i, err)
		return
	}

	forgetMessage(userID)

	embed := utils.CreateBrandedEmbed(
		utils.CasinoTitle,
		"Game forfeited. Your wager stays with the house.",
		utils.LoseColor,
	)
	view := utils.NewBlackjackView(userID)
	if err := utils.UpdateComponentInteraction(s, i, embed, view.DisableAllButtons()); err != nil {
		log.Printf("Failed to update forfeit message: %v", err)
	}
}

// onSessionExpired disables the game message after an idle timeout
func onSessionExpired(userID int64, bet int64) {
	messagesMutex.Lock()
	ref := gameMessages[userID]
	delete(gameMessages, userID)
	messagesMutex.Unlock()

	if ref == nil {
		return
	}

	embed := utils.GameTimeoutEmbed(bet)
	view := utils.NewBlackjackView(userID)
	if err := utils.EditOriginalInteraction(ref.session, ref.interaction, embed, view.DisableAllButtons()); err != nil {
		log.Printf("Failed to edit timed-out game message for user %d: %v", userID, err)
	}
}

// snapshotEmbed turns an engine snapshot into the game embed
func snapshotEmbed(snap *blackjack.Snapshot, balance int64) *discordgo.MessageEmbed {
	gameOver := snap.Phase == blackjack.PhaseResolved

	hands := make([]utils.HandData, 0, len(snap.Hands))
	for idx, h := range snap.Hands {
		cards := make([]string, len(h.Cards))
		for j, c := range h.Cards {
			cards[j] = c.String()
		}

		outcome := ""
		if gameOver && snap.Result != nil && idx < len(snap.Result.Hands) {
			outcome = snap.Result.Hands[idx].Outcome.String()
		}

		hands = append(hands, utils.HandData{
			Hand:     cards,
			Score:    h.Total,
			Bet:      h.Bet,
			IsActive: idx == snap.Active,
			Outcome:  outcome,
		})
	}

	dealerCards := make([]string, len(snap.DealerCards))
	for j, c := range snap.DealerCards {
		dealerCards[j] = c.String()
	}
	if !gameOver {
		dealerCards = append(dealerCards, "??")
	}

	profit := int64(0)
	if gameOver && snap.Result != nil {
		profit = snap.Result.TotalCredited - snap.TotalBet
	}

	return utils.BlackjackGameEmbed(hands, dealerCards, snap.DealerTotal, snap.TotalBet, gameOver, profit, balance)
}

// snapshotView builds the button row matching the snapshot's options
func snapshotView(snap *blackjack.Snapshot) *utils.BlackjackView {
	view := utils.NewBlackjackView(snap.UserID)
	view.CanHit = snap.CanHit
	view.CanDouble = snap.CanDouble
	view.CanSplit = snap.CanSplit
	return view
}

func parseCustomID(customID string) (kind string, ownerID int64, ok bool) {
	rest, found := strings.CutPrefix(customID, "blackjack_")
	if !found {
		return "", 0, false
	}

	idx := strings.LastIndex(rest, "_")
	if idx < 0 {
		return "", 0, false
	}

	ownerID, err := utils.ParseUserID(rest[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:idx], ownerID, true
}

func parseAction(kind string) (blackjack.Action, bool) {
	switch kind {
	case "hit":
		return blackjack.ActionHit, true
	case "stand":
		return blackjack.ActionStand, true
	case "double":
		return blackjack.ActionDouble, true
	case "split":
		return blackjack.ActionSplit, true
	default:
		return 0, false
	}
}

func respondWithStartError(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, userID int64, bet int64, err error) {
	switch {
	case errors.Is(err, blackjack.ErrBelowMinimum):
		respondEphemeral(s, i, fmt.Sprintf("The minimum bet is %d chips.", utils.MinBet))
	case errors.Is(err, blackjack.ErrAlreadyActive):
		respondEphemeral(s, i, "You already have an active Blackjack game.")
	case errors.Is(err, utils.ErrInsufficientFunds):
		balance, balErr := ledger.Balance(ctx, userID)
		if balErr != nil {
			balance = 0
		}
		embed := utils.InsufficientChipsEmbed(bet, balance)
		if sendErr := utils.SendInteractionResponse(s, i, embed, nil, true); sendErr != nil {
			log.Printf("Failed to send insufficient chips embed: %v", sendErr)
		}
	default:
		log.Printf("Failed to start blackjack game for user %d: %v", userID, err)
		respondWithError(s, i, "Failed to start game")
	}
}

func respondWithActionError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	switch {
	case errors.Is(err, blackjack.ErrNoActiveSession):
		respondEphemeral(s, i, "No active game found.")
	case errors.Is(err, blackjack.ErrIllegalAction):
		respondEphemeral(s, i, "You can't do that right now.")
	case errors.Is(err, utils.ErrInsufficientFunds):
		respondEphemeral(s, i, "Not enough chips for that move.")
	default:
		log.Printf("Blackjack action error: %v", err)
		respondWithError(s, i, "Something went wrong with that action")
	}
}

func respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if err := utils.SendInteractionResponse(s, i, utils.ErrorEmbed(message), nil, true); err != nil {
		log.Printf("Failed to send error response: %v", err)
	}
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Failed to send ephemeral response: %v", err)
	}
}

func rememberMessage(userID int64, s *discordgo.Session, i *discordgo.InteractionCreate) {
	messagesMutex.Lock()
	gameMessages[userID] = &messageRef{session: s, interaction: i}
	messagesMutex.Unlock()
}

func forgetMessage(userID int64) {
	messagesMutex.Lock()
	delete(gameMessages, userID)
	messagesMutex.Unlock()
}
