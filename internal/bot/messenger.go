package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	buttonsPerRow = 5
	maxRows       = 5
	// ephemeral messages are only shown to the user who pressed the button
	ephemeralFlag = 1 << 6
	recipeColor   = 0xFF9900
)

// Compile-time interface check.
var _ messenger.Messenger = (*Messenger)(nil)

// Messenger sends messages through a Discord session
type Messenger struct {
	session *discordgo.Session
	log     *zap.Logger
}

// NewMessenger creates a Messenger
func NewMessenger(session *discordgo.Session, log *zap.Logger) *Messenger {
	return &Messenger{
		session: session,
		log:     log.Named("discord-messenger"),
	}
}

// SendText sends a text message to a channel
func (m *Messenger) SendText(ctx context.Context, chatID, text string, buttons ...messenger.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := m.session.ChannelMessageSendComplex(chatID, &discordgo.MessageSend{
		Content:    text,
		Components: components(buttons),
	})
	if err != nil {
		return fmt.Errorf("send message to %s: %w", chatID, err)
	}
	return nil
}

// SendPhoto sends the caption in an embed showing the photo. A photo without
// a URL cannot be shown by Discord, so only the caption goes out.
func (m *Messenger) SendPhoto(ctx context.Context, chatID string, photo messenger.Photo, caption string, buttons ...messenger.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if photo.URL == "" {
		return m.SendText(ctx, chatID, caption, buttons...)
	}

	_, err := m.session.ChannelMessageSendComplex(chatID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{photoEmbed(photo, caption)},
		Components: components(buttons),
	})
	if err != nil {
		return fmt.Errorf("send photo to %s: %w", chatID, err)
	}
	m.log.Debug("Sent photo", zap.String("chat_id", chatID), zap.String("url", photo.URL))
	return nil
}

// Answer sends a message only the presser of a button can see
func (m *Messenger) Answer(ctx context.Context, token, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	appID, interactionToken, ok := splitReplyToken(token)
	if !ok {
		return fmt.Errorf("invalid reply token")
	}

	_, err := m.session.FollowupMessageCreate(
		&discordgo.Interaction{AppID: appID, Token: interactionToken},
		true,
		&discordgo.WebhookParams{
			Content: text,
			Flags:   ephemeralFlag,
		},
	)
	if err != nil {
		return fmt.Errorf("answer interaction: %w", err)
	}
	m.log.Debug("Answered interaction", zap.String("app_id", appID))
	return nil
}

func photoEmbed(photo messenger.Photo, caption string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: caption,
		Color:       recipeColor,
		Image: &discordgo.MessageEmbedImage{
			URL: photo.URL,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// components lays buttons out in rows of five
func components(buttons []messenger.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}

	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons) && len(rows) < maxRows; start += buttonsPerRow {
		end := start + buttonsPerRow
		if end > len(buttons) {
			end = len(buttons)
		}

		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, button(b))
		}
		rows = append(rows, row)
	}
	return rows
}

func button(b messenger.Button) discordgo.Button {
	if b.URL != "" {
		return discordgo.Button{
			Label: b.Label,
			Style: discordgo.LinkButton,
			URL:   b.URL,
		}
	}
	return discordgo.Button{
		Label:    b.Label,
		Style:    discordgo.PrimaryButton,
		CustomID: b.ID,
	}
}
