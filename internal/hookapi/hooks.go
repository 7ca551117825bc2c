package hookapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const maxHookBody = 1 << 20

// inboundEvent is the vendor's notification payload. Sections are optional
// and logged when present; nothing downstream consumes them.
type inboundEvent struct {
	Type  string `json:"type"`
	Alert *struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Status   string   `json:"status"`
		Severity string   `json:"severity"`
		Tags     []string `json:"tags"`
	} `json:"alert"`
	Event *struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Text     string   `json:"text"`
		Priority string   `json:"priority"`
		Tags     []string `json:"tags"`
	} `json:"event"`
	Monitor *struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
		Type   string `json:"type"`
	} `json:"monitor"`
}

// handleEventHook answers the vendor's endpoint verification handshake and
// acknowledges pushed notifications. GET with a challenge query parameter
// echoes the challenge back verbatim.
func (a *API) handleEventHook(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if challenge := r.URL.Query().Get("challenge"); challenge != "" {
			a.logger.Info(r.Context(), "event hook verification", "challenge", challenge)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(challenge))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "event hook endpoint is active",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxHookBody))
	if err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	var ev inboundEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	fields := []any{"type", ev.Type}
	if ev.Alert != nil {
		fields = append(fields, "alert_id", ev.Alert.ID, "alert_status", ev.Alert.Status)
	}
	if ev.Event != nil {
		fields = append(fields, "event_id", ev.Event.ID, "event_priority", ev.Event.Priority)
	}
	if ev.Monitor != nil {
		fields = append(fields, "monitor_id", ev.Monitor.ID, "monitor_status", ev.Monitor.Status)
	}
	a.logger.Info(r.Context(), "event hook received", fields...)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
