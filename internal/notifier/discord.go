package notifier

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/campus-hub/activity-api/internal/models"
)

// Notifier delivers human-facing notices about registration and
// activity changes. Calls are best-effort: the engine never fails an
// operation because a notification could not be sent.
type Notifier interface {
	Notify(user models.User, activity models.Activity, message string) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) Notify(user models.User, activity models.Activity, message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	mention := user.Username
	if user.DiscordID != "" {
		mention = fmt.Sprintf("%s (<@%s>)", user.Username, user.DiscordID)
	}

	text := fmt.Sprintf("📋 **%s**\n**User:** %s\n%s", activity.Title, mention, message)

	_, err := n.session.ChannelMessageSend(n.channelID, text)
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}

	return nil
}
