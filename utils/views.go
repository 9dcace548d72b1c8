package utils

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// CreateActionRow wraps buttons into an action row component
func CreateActionRow(buttons ...discordgo.MessageComponent) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: buttons,
	}
}

// CreateButton creates a button component
func CreateButton(customID, label string, style discordgo.ButtonStyle, disabled bool, emoji *discordgo.ComponentEmoji) discordgo.MessageComponent {
	return discordgo.Button{
		CustomID: customID,
		Label:    label,
		Style:    style,
		Disabled: disabled,
		Emoji:    emoji,
	}
}

// BlackjackView builds the action buttons for a blackjack game. The
// owner's user ID is baked into every custom ID so a press by anyone
// else can be rejected before touching their own session.
type BlackjackView struct {
	UserID    int64
	CanHit    bool
	CanStand  bool
	CanDouble bool
	CanSplit  bool
}

// NewBlackjackView creates a view with only hit/stand enabled
func NewBlackjackView(userID int64) *BlackjackView {
	return &BlackjackView{
		UserID:   userID,
		CanHit:   true,
		CanStand: true,
	}
}

// GetComponents returns the components for the blackjack view
func (bv *BlackjackView) GetComponents() []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent

	buttons = append(buttons, CreateButton(
		fmt.Sprintf("blackjack_hit_%d", bv.UserID),
		"Hit",
		discordgo.PrimaryButton,
		!bv.CanHit,
		&discordgo.ComponentEmoji{Name: "🃏"},
	))

	buttons = append(buttons, CreateButton(
		fmt.Sprintf("blackjack_stand_%d", bv.UserID),
		"Stand",
		discordgo.SecondaryButton,
		!bv.CanStand,
		&discordgo.ComponentEmoji{Name: "✋"},
	))

	if bv.CanDouble {
		buttons = append(buttons, CreateButton(
			fmt.Sprintf("blackjack_double_%d", bv.UserID),
			"Double Down",
			discordgo.SuccessButton,
			false,
			&discordgo.ComponentEmoji{Name: "💰"},
		))
	}

	if bv.CanSplit {
		buttons = append(buttons, CreateButton(
			fmt.Sprintf("blackjack_split_%d", bv.UserID),
			"Split",
			discordgo.SuccessButton,
			false,
			&discordgo.ComponentEmoji{Name: "✂️"},
		))
	}

	buttons = append(buttons, CreateButton(
		fmt.Sprintf("blackjack_cancel_%d", bv.UserID),
		"Forfeit",
		discordgo.DangerButton,
		false,
		&discordgo.ComponentEmoji{Name: "🏳️"},
	))

	return []discordgo.MessageComponent{CreateActionRow(buttons...)}
}

// DisableAllButtons disables all buttons in the view
func (bv *BlackjackView) DisableAllButtons() []discordgo.MessageComponent {
	bv.CanHit = false
	bv.CanStand = false
	bv.CanDouble = false
	bv.CanSplit = false

	row := CreateActionRow(
		CreateButton(fmt.Sprintf("blackjack_hit_%d", bv.UserID), "Hit", discordgo.PrimaryButton, true, &discordgo.ComponentEmoji{Name: "🃏"}),
		CreateButton(fmt.Sprintf("blackjack_stand_%d", bv.UserID), "Stand", discordgo.SecondaryButton, true, &discordgo.ComponentEmoji{Name: "✋"}),
	)
	return []discordgo.MessageComponent{row}
}

// SendInteractionResponse sends the first response to an interaction
func SendInteractionResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// UpdateComponentInteraction updates the message a component press came
// from
func UpdateComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// EditOriginalInteraction edits the original response of an interaction
func EditOriginalInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	return err
}

// ParseUserID converts a Discord snowflake string to int64
func ParseUserID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
