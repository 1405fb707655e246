package bot

import (
	"testing"

	"github.com/bradykim7/cooknet/internal/messenger"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bwmarrin/discordgo"
)

func message(content string, attachments ...*discordgo.MessageAttachment) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID:   "chan-1",
		Content:     content,
		Author:      &discordgo.User{ID: "u1", Username: "chef"},
		Attachments: attachments,
	}}
}

func TestMessageEvent(t *testing.T) {
	tests := []struct {
		name     string
		msg      *discordgo.MessageCreate
		wantOK   bool
		kind     models.EventKind
		command  string
		payload  string
		photoURL string
	}{
		{
			name:    "command with args",
			msg:     message("!recipe 12"),
			wantOK:  true,
			kind:    models.EventCommand,
			command: "recipe",
			payload: "12",
		},
		{
			name:    "plain text",
			msg:     message("  Pasta  "),
			wantOK:  true,
			kind:    models.EventText,
			payload: "Pasta",
		},
		{
			name: "image attachment",
			msg: message("", &discordgo.MessageAttachment{
				ID: "att-1", URL: "https://cdn.discordapp.com/a.png", Filename: "a.png", ContentType: "image/png",
			}),
			wantOK:   true,
			kind:     models.EventPhoto,
			photoURL: "https://cdn.discordapp.com/a.png",
		},
		{
			name: "non image attachment with text",
			msg: message("notes", &discordgo.MessageAttachment{
				ID: "att-2", URL: "https://cdn.discordapp.com/a.txt", Filename: "a.txt", ContentType: "text/plain",
			}),
			wantOK:  true,
			kind:    models.EventText,
			payload: "notes",
		},
		{
			name:     "bare link",
			msg:      message("https://example.com/recipes/pasta"),
			wantOK:   true,
			kind:     models.EventPhoto,
			photoURL: "https://example.com/recipes/pasta",
		},
		{
			name:    "link inside a sentence",
			msg:     message("look at https://example.com"),
			wantOK:  true,
			kind:    models.EventText,
			payload: "look at https://example.com",
		},
		{
			name:   "empty",
			msg:    message("   "),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := messageEvent("!", "bot-id", tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if ev.Kind != tt.kind || ev.Command != tt.command || ev.Payload != tt.payload || ev.PhotoURL != tt.photoURL {
				t.Fatalf("unexpected event %+v", ev)
			}
			if ev.UserID != "u1" || ev.ChatID != "chan-1" || ev.Username != "chef" {
				t.Fatalf("unexpected sender %+v", ev)
			}
			if ev.ReceivedAt.IsZero() {
				t.Fatal("expected receive time")
			}
		})
	}
}

func TestMessageEventSkipsBots(t *testing.T) {
	own := message("hello")
	own.Author.ID = "bot-id"
	if _, ok := messageEvent("!", "bot-id", own); ok {
		t.Fatal("own messages must be ignored")
	}

	other := message("hello")
	other.Author.Bot = true
	if _, ok := messageEvent("!", "bot-id", other); ok {
		t.Fatal("messages from other bots must be ignored")
	}
}

func TestComponentEvent(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		AppID:     "app",
		Token:     "secret",
		ChannelID: "chan-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "chef"}},
		Data:      discordgo.MessageComponentInteractionData{CustomID: "like_12"},
	}}

	ev, ok := componentEvent(i)
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.Kind != models.EventAction || ev.Payload != "like_12" || ev.UserID != "u1" || ev.ChatID != "chan-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if !ev.Interactive() {
		t.Fatal("button presses are interactive")
	}

	appID, token, ok := splitReplyToken(ev.ReplyToken)
	if !ok || appID != "app" || token != "secret" {
		t.Fatalf("unexpected reply token %q", ev.ReplyToken)
	}

	i.Type = discordgo.InteractionApplicationCommand
	if _, ok := componentEvent(i); ok {
		t.Fatal("only component interactions become events")
	}
}

func TestComponents(t *testing.T) {
	var buttons []messenger.Button
	for i := 0; i < 7; i++ {
		buttons = append(buttons, messenger.Button{Label: "b", ID: "x"})
	}
	buttons = append(buttons, messenger.Button{Label: "web", URL: "https://cooknet.example"})

	rows := components(buttons)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	second := rows[1].(discordgo.ActionsRow)
	if len(second.Components) != 3 {
		t.Fatalf("expected 3 buttons in the second row, got %d", len(second.Components))
	}
	link := second.Components[2].(discordgo.Button)
	if link.Style != discordgo.LinkButton || link.URL == "" || link.CustomID != "" {
		t.Fatalf("unexpected link button %+v", link)
	}

	if components(nil) != nil {
		t.Fatal("no buttons means no components")
	}
}
