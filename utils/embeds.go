package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// HandData represents one player hand for the blackjack embed
type HandData struct {
	Hand     []string
	Score    int
	Bet      int64
	IsActive bool
	Outcome  string
}

// CreateBrandedEmbed creates a basic embed with casino branding
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Slixk's Casino",
		},
	}
}

// ErrorEmbed creates a red error embed
func ErrorEmbed(message string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed("❌ Error", message, ErrorColor)
}

// InsufficientChipsEmbed creates an embed for insufficient chips
func InsufficientChipsEmbed(requiredChips, currentBalance int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"Not Enough Chips",
		fmt.Sprintf("You do not have enough credits for that bet.\n**Your balance:** %s chips\n**Required:** %s chips",
			FormatNumber(currentBalance),
			FormatNumber(requiredChips)),
		ErrorColor,
	)
}

// GameTimeoutEmbed creates an embed for an idle-cancelled game
func GameTimeoutEmbed(betAmount int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"⏰ Game Timeout",
		fmt.Sprintf(GameTimeoutMessage, betAmount),
		0xF39C12,
	)
}

// BlackjackGameEmbed creates the embed for a blackjack game state.
// While the game is live the dealer shows only the up-card; once it is
// over the full dealer hand, per-hand outcomes and the new balance are
// shown.
func BlackjackGameEmbed(playerHands []HandData, dealerHand []string, dealerValue int, totalBet int64, gameOver bool, profit int64, newBalance int64) *discordgo.MessageEmbed {
	var color int
	if gameOver {
		switch {
		case profit > 0:
			color = WinColor
		case profit < 0:
			color = LoseColor
		default:
			color = 0xD3D3D3 // push grey
		}
	} else {
		color = 0x1E5631 // casino green
	}

	embed := CreateBrandedEmbed(CasinoTitle, "", color)

	for i, handData := range playerHands {
		handStr := strings.Join(handData.Hand, ", ")

		var title string
		if len(playerHands) > 1 {
			marker := ""
			if handData.IsActive && !gameOver {
				marker = "▶ "
			}
			title = fmt.Sprintf("%s__Hand %d/%d__ — Score: %d", marker, i+1, len(playerHands), handData.Score)
		} else {
			title = fmt.Sprintf("__Your Hand__ — Score: %d", handData.Score)
		}

		value := handStr
		if gameOver && handData.Outcome != "" {
			value = fmt.Sprintf("%s\n**%s**", handStr, handData.Outcome)
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   title,
			Value:  value,
			Inline: false,
		})
	}

	dealerName := "Dealer's Visible Card"
	if gameOver {
		dealerName = fmt.Sprintf("Dealer's Hand — Score: %d", dealerValue)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   dealerName,
		Value:  strings.Join(dealerHand, ", "),
		Inline: false,
	})

	if gameOver {
		embed.Footer.Text = fmt.Sprintf("Remaining Balance: %s chips", FormatNumber(newBalance))
	} else {
		embed.Footer.Text = fmt.Sprintf("Bet: %s chips", FormatNumber(totalBet))
	}

	return embed
}

// BalanceEmbed creates the /balance response
func BalanceEmbed(username string, chips int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		fmt.Sprintf("💰 %s's Balance", username),
		fmt.Sprintf("You currently have **%s** chips", FormatNumber(chips)),
		BotColor,
	)
}

// ProfileEmbed creates the /profile response
func ProfileEmbed(username string, user *User) *discordgo.MessageEmbed {
	totalGames := user.Wins + user.Losses
	winRate := 0.0
	if totalGames > 0 {
		winRate = float64(user.Wins) / float64(totalGames) * 100
	}

	embed := CreateBrandedEmbed(fmt.Sprintf("🎰 %s's Casino Profile", username), "", BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "💰 Chips", Value: FormatNumber(user.Chips), Inline: true},
		{Name: "🎯 Games Won", Value: fmt.Sprintf("%d", user.Wins), Inline: true},
		{Name: "💔 Games Lost", Value: fmt.Sprintf("%d", user.Losses), Inline: true},
		{Name: "📊 Win Rate", Value: fmt.Sprintf("%.1f%%", winRate), Inline: true},
	}
	return embed
}

// FormatNumber formats a number with thousands separators
func FormatNumber(num int64) string {
	str := fmt.Sprintf("%d", num)
	if num < 0 {
		str = str[1:]
	}

	var parts []string
	for len(str) > 3 {
		parts = append([]string{str[len(str)-3:]}, parts...)
		str = str[:len(str)-3]
	}
	parts = append([]string{str}, parts...)

	out := strings.Join(parts, ",")
	if num < 0 {
		out = "-" + out
	}
	return out
}
