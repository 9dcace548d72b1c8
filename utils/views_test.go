package utils

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func buttonsOf(t *testing.T, components []discordgo.MessageComponent) []discordgo.Button {
	t.Helper()

	if len(components) != 1 {
		t.Fatalf("Expected a single action row, got %d components", len(components))
	}
	row, ok := components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("Expected an ActionsRow, got %T", components[0])
	}

	var buttons []discordgo.Button
	for _, c := range row.Components {
		button, ok := c.(discordgo.Button)
		if !ok {
			t.Fatalf("Expected a Button, got %T", c)
		}
		buttons = append(buttons, button)
	}
	return buttons
}

func TestBlackjackViewBakesOwnerIntoCustomIDs(t *testing.T) {
	view := NewBlackjackView(123456789)
	buttons := buttonsOf(t, view.GetComponents())

	for _, button := range buttons {
		expected := "_123456789"
		if len(button.CustomID) < len(expected) ||
			button.CustomID[len(button.CustomID)-len(expected):] != expected {
			t.Errorf("Custom ID %q does not end with owner ID", button.CustomID)
		}
	}
}

func TestBlackjackViewOffersOptionalActions(t *testing.T) {
	view := NewBlackjackView(1)
	buttons := buttonsOf(t, view.GetComponents())

	// Hit, stand and forfeit only
	if len(buttons) != 3 {
		t.Fatalf("Expected 3 buttons without double/split, got %d", len(buttons))
	}

	view.CanDouble = true
	view.CanSplit = true
	buttons = buttonsOf(t, view.GetComponents())
	if len(buttons) != 5 {
		t.Fatalf("Expected 5 buttons with double and split, got %d", len(buttons))
	}

	seen := make(map[string]bool)
	for _, button := range buttons {
		seen[button.CustomID] = true
	}
	for _, kind := range []string{"hit", "stand", "double", "split", "cancel"} {
		id := fmt.Sprintf("blackjack_%s_1", kind)
		if !seen[id] {
			t.Errorf("Missing button with custom ID %q", id)
		}
	}
}

func TestBlackjackViewDisabledWhenCannotHit(t *testing.T) {
	view := NewBlackjackView(1)
	view.CanHit = false
	buttons := buttonsOf(t, view.GetComponents())

	for _, button := range buttons {
		if button.CustomID == "blackjack_hit_1" && !button.Disabled {
			t.Error("Hit button should be disabled when hitting is not allowed")
		}
	}
}

func TestDisableAllButtons(t *testing.T) {
	view := NewBlackjackView(1)
	view.CanDouble = true

	buttons := buttonsOf(t, view.DisableAllButtons())
	if len(buttons) == 0 {
		t.Fatal("Expected disabled buttons, got none")
	}
	for _, button := range buttons {
		if !button.Disabled {
			t.Errorf("Button %q should be disabled", button.CustomID)
		}
	}
}

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID("123456789012345678")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != 123456789012345678 {
		t.Errorf("Expected 123456789012345678, got %d", id)
	}

	if _, err := ParseUserID("not-a-snowflake"); err == nil {
		t.Error("Expected an error for a non-numeric ID")
	}
}
