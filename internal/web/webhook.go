package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bradykim7/cooknet/internal/bot/commands"
	"github.com/bradykim7/cooknet/internal/dispatch"
	"github.com/bradykim7/cooknet/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type acceptedResponse struct {
	ID string `json:"id"`
}

// webhookEvent is the JSON shape of an event posted by an external
// transport
type webhookEvent struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	ChatID     string `json:"chat_id"`
	Username   string `json:"username"`
	Kind       string `json:"kind"`
	Command    string `json:"command"`
	Payload    string `json:"payload"`
	PhotoID    string `json:"photo_id"`
	PhotoURL   string `json:"photo_url"`
	ReplyToken string `json:"reply_token"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.webhookAllowed(chi.URLParam(r, "token")) {
		http.NotFound(w, r)
		return
	}

	var in webhookEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid event: " + err.Error()})
		return
	}

	ev, err := s.toEvent(in)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if ev.ID == "" {
		ev.ID = requestIDFrom(r.Context())
	}

	if err := s.events.Submit(r.Context(), ev); err != nil {
		status := http.StatusServiceUnavailable
		if !errors.Is(err, dispatch.ErrStopped) {
			s.log.Error("Failed to queue webhook event", zap.String("event_id", ev.ID), zap.Error(err))
		}
		writeJSON(w, status, errorResponse{Error: "event queue unavailable"})
		return
	}

	writeJSON(w, http.StatusAccepted, acceptedResponse{ID: ev.ID})
}

func (s *Server) webhookAllowed(token string) bool {
	if s.events == nil || s.opts.WebhookToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.WebhookToken)) == 1
}

// toEvent validates the posted event. A command may arrive either split
// into command and payload or as raw text in payload.
func (s *Server) toEvent(in webhookEvent) (models.Event, error) {
	ev := models.Event{
		ID:         strings.TrimSpace(in.ID),
		UserID:     strings.TrimSpace(in.UserID),
		ChatID:     strings.TrimSpace(in.ChatID),
		Username:   strings.TrimSpace(in.Username),
		Kind:       models.EventKind(strings.ToLower(strings.TrimSpace(in.Kind))),
		Command:    strings.ToLower(strings.TrimSpace(in.Command)),
		Payload:    in.Payload,
		PhotoID:    strings.TrimSpace(in.PhotoID),
		PhotoURL:   strings.TrimSpace(in.PhotoURL),
		ReplyToken: in.ReplyToken,
		ReceivedAt: s.now(),
	}

	if ev.UserID == "" || ev.ChatID == "" {
		return ev, errors.New("user_id and chat_id are required")
	}

	switch ev.Kind {
	case models.EventText:
	case models.EventPhoto:
		if ev.PhotoID == "" && ev.PhotoURL == "" {
			return ev, errors.New("photo events need photo_id or photo_url")
		}
	case models.EventAction:
		if strings.TrimSpace(ev.Payload) == "" {
			return ev, errors.New("action events need a payload")
		}
	case models.EventCommand:
		if ev.Command == "" {
			// 접두어 없이 온 명령도 허용
			raw := strings.TrimSpace(ev.Payload)
			if !strings.HasPrefix(raw, s.opts.CommandPrefix) {
				raw = s.opts.CommandPrefix + raw
			}
			name, args, ok := commands.Parse(s.opts.CommandPrefix, raw)
			if !ok {
				return ev, errors.New("command events need a command")
			}
			ev.Command, ev.Payload = name, args
		}
	default:
		return ev, errors.New("kind must be one of text, photo, command, action")
	}
	return ev, nil
}
