package bot

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/bradykim7/cooknet/internal/bot/commands"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bwmarrin/discordgo"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// messageEvent translates a Discord message into an inbound event. Messages
// from bots, including this one, are skipped.
func messageEvent(prefix, selfID string, m *discordgo.MessageCreate) (models.Event, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return models.Event{}, false
	}
	if m.Author.Bot || m.Author.ID == selfID {
		return models.Event{}, false
	}

	ev := models.Event{
		UserID:     m.Author.ID,
		ChatID:     m.ChannelID,
		Username:   m.Author.Username,
		ReceivedAt: time.Now(),
	}

	if att := firstImage(m.Attachments); att != nil {
		ev.Kind = models.EventPhoto
		ev.PhotoID = att.ID
		ev.PhotoURL = att.URL
		ev.Payload = strings.TrimSpace(m.Content)
		return ev, true
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return models.Event{}, false
	}

	if name, args, ok := commands.Parse(prefix, content); ok {
		ev.Kind = models.EventCommand
		ev.Command = name
		ev.Payload = args
		return ev, true
	}

	// A bare link is treated as a photo; the resolver decides whether it
	// really points to an image.
	if isLink(content) {
		ev.Kind = models.EventPhoto
		ev.PhotoURL = content
		return ev, true
	}

	ev.Kind = models.EventText
	ev.Payload = content
	return ev, true
}

// componentEvent translates a button press into an action event
func componentEvent(i *discordgo.InteractionCreate) (models.Event, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return models.Event{}, false
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return models.Event{}, false
	}

	data := i.MessageComponentData()
	if data.CustomID == "" {
		return models.Event{}, false
	}

	return models.Event{
		UserID:     user.ID,
		ChatID:     i.ChannelID,
		Username:   user.Username,
		Kind:       models.EventAction,
		Payload:    data.CustomID,
		ReplyToken: replyToken(i.AppID, i.Token),
		ReceivedAt: time.Now(),
	}, true
}

func firstImage(attachments []*discordgo.MessageAttachment) *discordgo.MessageAttachment {
	for _, att := range attachments {
		if att == nil || att.URL == "" {
			continue
		}
		if strings.HasPrefix(att.ContentType, "image/") || att.Width > 0 ||
			imageExtensions[strings.ToLower(path.Ext(att.Filename))] {
			return att
		}
	}
	return nil
}

func isLink(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// replyToken packs what a follow-up message needs into one string
func replyToken(appID, token string) string {
	if token == "" {
		return ""
	}
	return appID + ":" + token
}

func splitReplyToken(s string) (appID, token string, ok bool) {
	appID, token, ok = strings.Cut(s, ":")
	return appID, token, ok && appID != "" && token != ""
}
