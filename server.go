package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"i4.energy/across/callgate/at"
	"i4.energy/across/callgate/journal"
	"i4.energy/across/callgate/modem"
	"i4.energy/across/callgate/transfer"
)

// automaticTransfer marks journal entries for whole-balance transfers.
const automaticTransfer = "automatic"

// DefaultUSSDTimeout caps how long POST /ussd waits for the network.
const DefaultUSSDTimeout = 30 * time.Second

// Gateway is the part of the modem the API drives.
type Gateway interface {
	SendSMS(number, text string) (string, error)
	SendUSSD(code string, h modem.USSDHandler) (string, error)
	OwnNumber() (string, bool)
	Pending() (ussd, sms int)
}

// Transferrer starts credit transfers and reports on them.
type Transferrer interface {
	Run(amount int) error
	RunAutomatic() error
	Status() transfer.Status
}

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger  *slog.Logger
	Modem   Gateway
	Journal journal.Journal
	// Transfer is nil when no master number is configured.
	Transfer    Transferrer
	USSDTimeout time.Duration

	once sync.Once
	mux  *http.ServeMux
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.once.Do(func() {
		s.mux = http.NewServeMux()
		s.mux.HandleFunc("POST /sms", s.handleSMS)
		s.mux.HandleFunc("POST /ussd", s.handleUSSD)
		s.mux.HandleFunc("POST /transfer", s.handleTransfer)
		s.mux.HandleFunc("GET /status", s.handleStatus)
		s.mux.HandleFunc("GET /events", s.handleEvents)
	})
	s.mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to write response", "error", err)
	}
}

// handleSMS queues an outgoing message
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	type SMSRequest struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}

	var req SMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(req.Message) > at.MaxSMSTextLength {
		s.sendError(w, "message exceeds "+strconv.Itoa(at.MaxSMSTextLength)+" characters", http.StatusBadRequest)
		return
	}

	id, err := s.Modem.SendSMS(req.To, req.Message)
	if err != nil {
		s.Logger.Error("Failed to queue SMS", "error", err, "to", req.To)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	s.Logger.Info("SMS queued", "id", id, "to", req.To, "message_length", len(req.Message))
	s.sendJSON(w, map[string]string{"status": "queued", "id": id}, http.StatusAccepted)
}

// handleUSSD queues a USSD code and waits for the network's answer
func (s *Server) handleUSSD(w http.ResponseWriter, r *http.Request) {
	type USSDRequest struct {
		Code string `json:"code"`
	}

	var req USSDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		s.sendError(w, "'code' field is required", http.StatusBadRequest)
		return
	}

	answer := make(chan string, 1)
	id, err := s.Modem.SendUSSD(req.Code, modem.USSDHandlerFunc(func(_ context.Context, text string) error {
		answer <- text
		return nil
	}))
	if err != nil {
		s.Logger.Error("Failed to queue USSD request", "error", err, "code", req.Code)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	timeout := s.USSDTimeout
	if timeout <= 0 {
		timeout = DefaultUSSDTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	select {
	case text := <-answer:
		s.record(r.Context(), journal.Event{Kind: journal.KindUSSD, Text: text, Allowed: true})
		s.sendJSON(w, map[string]string{"id": id, "text": text}, http.StatusOK)
	case <-ctx.Done():
		s.Logger.Warn("USSD answer timed out", "id", id, "code", req.Code)
		s.sendError(w, "no USSD answer in time", http.StatusGatewayTimeout)
	}
}

// handleTransfer starts a transfer of a fixed amount, or of the whole
// balance when no amount is given
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if s.Transfer == nil {
		s.sendError(w, "transfers are not configured", http.StatusServiceUnavailable)
		return
	}

	type TransferRequest struct {
		Amount int `json:"amount"`
	}

	var req TransferRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Amount < 0 {
		s.sendError(w, "'amount' must be positive", http.StatusBadRequest)
		return
	}

	var err error
	if req.Amount > 0 {
		err = s.Transfer.Run(req.Amount)
	} else {
		err = s.Transfer.RunAutomatic()
	}
	if err != nil {
		s.Logger.Error("Failed to start transfer", "error", err, "amount", req.Amount)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}

	text := automaticTransfer
	if req.Amount > 0 {
		text = strconv.Itoa(req.Amount)
	}
	s.record(r.Context(), journal.Event{Kind: journal.KindTransfer, Text: text, Allowed: true})
	s.sendJSON(w, map[string]string{"status": "started"}, http.StatusAccepted)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type TransferStatus struct {
		State      string `json:"state"`
		Amount     int    `json:"amount"`
		Expiration string `json:"expiration"`
		LastError  string `json:"last_error,omitempty"`
	}
	type StatusResponse struct {
		OwnNumber   string          `json:"own_number,omitempty"`
		PendingUSSD int             `json:"pending_ussd"`
		PendingSMS  int             `json:"pending_sms"`
		Transfer    *TransferStatus `json:"transfer,omitempty"`
	}

	var resp StatusResponse
	resp.OwnNumber, _ = s.Modem.OwnNumber()
	resp.PendingUSSD, resp.PendingSMS = s.Modem.Pending()

	if s.Transfer != nil {
		st := s.Transfer.Status()
		resp.Transfer = &TransferStatus{
			State:      st.State.String(),
			Amount:     st.Amount,
			Expiration: st.Expiration,
		}
		if st.LastErr != nil {
			resp.Transfer.LastError = st.LastErr.Error()
		}
	}

	s.sendJSON(w, resp, http.StatusOK)
}

// handleEvents lists the latest journal entries, newest first
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	n := 20
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			s.sendError(w, "'n' must be a positive number", http.StatusBadRequest)
			return
		}
		n = min(parsed, journal.MaxEvents)
	}

	events := []journal.Event{}
	if s.Journal != nil {
		recent, err := s.Journal.Recent(r.Context(), n)
		if err != nil {
			s.Logger.Error("Failed to read events", "error", err)
			s.sendError(w, err.Error(), http.StatusBadGateway)
			return
		}
		events = append(events, recent...)
	}
	s.sendJSON(w, events, http.StatusOK)
}

func (s *Server) record(ctx context.Context, e journal.Event) {
	recordEvent(ctx, s.Journal, s.Logger, e)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, modem.ErrInvalidRequest), errors.Is(err, transfer.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, modem.ErrAlreadyClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
