package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eldtechnologies/omnidesk/internal/metrics"
	"github.com/eldtechnologies/omnidesk/internal/models"
	"github.com/eldtechnologies/omnidesk/internal/store"
)

var errChannelDisconnected = errors.New("channel not connected")

// AutomationRequest is the body of PUT .../conversations/{id}/automation.
type AutomationRequest struct {
	Enabled *bool `json:"enabled"`
}

// TestResponse is returned by POST .../test for a connected channel.
type TestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// channel loads the platform account, answering 500 on store failure.
func (h *Handler) channel(w http.ResponseWriter, r *http.Request, platform string) (*models.Channel, bool) {
	ch, err := h.ds.GetChannel(r.Context(), platform)
	if err != nil {
		h.logger.Error().Err(err).Str("platform", platform).Msg("channel lookup failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return nil, false
	}
	if ch == nil {
		ch = &models.Channel{Platform: platform}
	}
	return ch, true
}

// TestChannel handles POST /{platform}/test.
func (h *Handler) TestChannel(platform string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ch, ok := h.channel(w, r, platform)
		if !ok {
			return
		}
		if !ch.Connected {
			h.Error(w, http.StatusFailedDependency, fmt.Sprintf("%s account is not connected", platform))
			return
		}
		name := ch.AccountName
		if name == "" {
			name = ch.AccountID
		}
		h.JSON(w, http.StatusOK, TestResponse{
			Success: true,
			Message: fmt.Sprintf("connected to %s as %s", platform, name),
		})
	}
}

// SetAutomation handles PUT /{platform}/conversations/{id}/automation.
func (h *Handler) SetAutomation(platform string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := customerParam(r)

		var req AutomationRequest
		if !h.decode(w, r, &req) {
			return
		}
		if req.Enabled == nil {
			h.Error(w, http.StatusBadRequest, "enabled is required")
			return
		}

		err := h.ds.SetAutomation(r.Context(), platform, customerID, *req.Enabled)
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "conversation not found")
			return
		}
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to update automation")
			return
		}

		h.JSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"customer_id": customerID,
			"enabled":     *req.Enabled,
		})
	}
}

// messagesFor loads a thread's messages, answering 404 for unknown threads.
func (h *Handler) messagesFor(w http.ResponseWriter, r *http.Request, platform, customerID string) ([]models.Message, bool) {
	conv, err := h.ds.GetConversation(r.Context(), platform, customerID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return nil, false
	}
	if conv == nil {
		h.Error(w, http.StatusNotFound, "conversation not found")
		return nil, false
	}

	msgs, err := h.ds.ListMessages(r.Context(), platform, customerID, limitParam(r))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to get messages")
		return nil, false
	}
	return msgs, true
}

// recordOutbound stores an operator message, opening the thread if needed.
func (h *Handler) recordOutbound(ctx context.Context, platform, customerID, body string) (*models.Message, error) {
	ch, err := h.ds.GetChannel(ctx, platform)
	if err != nil {
		return nil, err
	}
	if ch == nil || !ch.Connected {
		return nil, errChannelDisconnected
	}

	conv := &models.Conversation{Platform: platform, CustomerID: customerID, Active: true}
	if err := h.ds.UpsertConversation(ctx, conv); err != nil {
		return nil, err
	}

	msg := &models.Message{
		Platform:   platform,
		CustomerID: customerID,
		Body:       body,
		Direction:  models.DirectionOutbound,
	}
	if err := h.ds.AddMessage(ctx, msg); err != nil {
		return nil, err
	}

	metrics.MessagesSent.WithLabelValues(platform).Inc()
	h.logger.Debug().Str("platform", platform).Str("customer_id", customerID).Str("message_id", msg.ID).Msg("message sent")
	return msg, nil
}

// sendError maps recordOutbound failures to responses.
func (h *Handler) sendError(w http.ResponseWriter, platform string, err error) {
	if errors.Is(err, errChannelDisconnected) {
		h.Error(w, http.StatusConflict, fmt.Sprintf("%s account is not connected", platform))
		return
	}
	h.logger.Error().Err(err).Str("platform", platform).Msg("send failed")
	h.Error(w, http.StatusInternalServerError, "failed to send message")
}

// requireText trims s and answers 400 naming field when it is empty.
func (h *Handler) requireText(w http.ResponseWriter, field, s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		h.Error(w, http.StatusBadRequest, field+" is required")
		return "", false
	}
	return s, true
}
