//go:build windows
// +build windows

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

var (
	clients   = make(map[chan string]bool)
	clientsMu sync.RWMutex
	serverCtx *EngineContext
)

func startWebServer(ctx *EngineContext) {
	serverCtx = ctx

	http.HandleFunc("/", serveHTML)
	http.HandleFunc("/api/status", handleStatus)
	http.HandleFunc("/api/settings", handleSettings)
	http.HandleFunc("/api/increase", handleAction(ctx.increase))
	http.HandleFunc("/api/decrease", handleAction(ctx.decrease))
	http.HandleFunc("/api/custom", handleAction(ctx.applyCustom))
	http.HandleFunc("/events", handleSSE)

	addr := "127.0.0.1:" + serverPort
	if logger != nil {
		logger.Printf("[HTTP] listening on %s", addr)
	}
	if err := http.ListenAndServe(addr, nil); err != nil {
		if logger != nil {
			logger.Printf("[HTTP] server error: %v", err)
		}
	}
}

func serveHTML(w http.ResponseWriter, r *http.Request) {
	data, _ := content.ReadFile("ui.html")
	w.Header().Set("Content-Type", "text/html")
	w.Write(data)
}

type statusPayload struct {
	Settings   Settings `json:"settings"`
	Brightness float64  `json:"brightness"`
	Percent    int      `json:"percent"`
	Exact      bool     `json:"exact"`
	Version    string   `json:"version"`
	Combos     []string `json:"combos"`
	Keys       []string `json:"keys"`
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	s, value, exact := serverCtx.snapshot()
	payload := statusPayload{
		Settings:   s,
		Brightness: value,
		Percent:    summaryPercent(value, s.StepSize, exact),
		Exact:      exact,
		Version:    currentVersion,
		Combos:     comboChoices(),
		Keys:       keyChoices(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func handleSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodGet {
		s, _, _ := serverCtx.snapshot()
		json.NewEncoder(w).Encode(s)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var next Settings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	prev, _, _ := serverCtx.snapshot()
	if err := serverCtx.updateSettings(next); err != nil {
		if logger != nil {
			logger.Printf("[SETTINGS] edit rejected: %v", err)
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if prev.StartWithWindows != next.StartWithWindows {
		syncStartupShortcut(next.StartWithWindows)
	}
	if logger != nil {
		logger.Printf("[SETTINGS] updated via UI (step=%.2f custom=%.2f)", next.StepSize, next.CustomBrightness)
	}
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func handleAction(op func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		op()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

func handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if f, ok := w.(http.Flusher); ok {
		s, value, exact := serverCtx.snapshot()
		init := map[string]interface{}{
			"brightness": value,
			"percent":    summaryPercent(value, s.StepSize, exact),
			"exact":      exact,
		}
		if j, err := json.Marshal(init); err == nil {
			fmt.Fprintf(w, "data: %s\n\n", j)
		}
		f.Flush()
	}

	messageChan := make(chan string, 8)

	clientsMu.Lock()
	clients[messageChan] = true
	clientsMu.Unlock()

	defer func() {
		clientsMu.Lock()
		delete(clients, messageChan)
		close(messageChan)
		clientsMu.Unlock()
	}()

	flusher, _ := w.(http.Flusher)
	ctxDone := r.Context().Done()

	for {
		select {
		case <-ctxDone:
			return
		case msg, ok := <-messageChan:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", msg)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func broadcast(data map[string]interface{}) {
	jsonData, _ := json.Marshal(data)
	payload := string(jsonData)

	clientsMu.RLock()
	for client := range clients {
		func(ch chan string, m string) {
			defer func() {
				if r := recover(); r != nil {
					if logger != nil {
						logger.Printf("[SSE] dropped send to closed channel: %v", r)
					}
				}
			}()
			select {
			case ch <- m:
			default:
			}
		}(client, payload)
	}
	clientsMu.RUnlock()
}

// comboChoices and keyChoices feed the dropdowns in the settings page.
func comboChoices() []string {
	return []string{
		comboControl,
		comboShift,
		comboControlShift,
		comboShiftAlt,
		comboControlShiftAlt,
	}
}

func keyChoices() []string {
	keys := make([]string, 0, 24+8)
	for i := 1; i <= 24; i++ {
		keys = append(keys, fmt.Sprintf("F%d", i))
	}
	keys = append(keys, "Up", "Down", "PageUp", "PageDown", "Home", "End", "+", "-")
	return keys
}
