package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/careloop/medreminder/internal/api/middleware"
	"github.com/careloop/medreminder/internal/records"
	"github.com/careloop/medreminder/internal/watch"
	"github.com/careloop/medreminder/pkg/logging"
)

// StreamHandler pushes live prescription and intake updates to the patient
// app over a websocket, replacing the store's native snapshot listeners.
type StreamHandler struct {
	prescriptions PrescriptionReader
	intakes       IntakeReader
	interval      time.Duration
	logger        *logging.Logger
	upgrader      websocket.Upgrader
}

// NewStreamHandler creates the handler.
func NewStreamHandler(prescriptions PrescriptionReader, intakes IntakeReader, interval time.Duration, logger *logging.Logger) *StreamHandler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StreamHandler{
		prescriptions: prescriptions,
		intakes:       intakes,
		interval:      interval,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Token auth happens before the upgrade; app clients have no
			// meaningful origin to check.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type streamEvent struct {
	Type          string                       `json:"type"` // "prescriptions" or "intakes"
	Prescriptions []records.Prescription       `json:"prescriptions,omitempty"`
	Intakes       []records.IntakeConfirmation `json:"intakes,omitempty"`
}

// Serve handles GET /patients/{patientID}/stream.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if !middleware.SubjectMatches(r.Context(), patientID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("stream: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())

	// Writes come from two feeds; serialize them through one channel since
	// gorilla connections allow a single concurrent writer.
	events := make(chan streamEvent, 8)

	rxSub := watch.Changes(ctx, h.interval,
		func(ctx context.Context) ([]records.Prescription, error) {
			return h.prescriptions.ListByPatient(ctx, patientID)
		},
		func(rxs []records.Prescription) {
			select {
			case events <- streamEvent{Type: "prescriptions", Prescriptions: rxs}:
			case <-ctx.Done():
			}
		},
		h.logger,
	)

	intakeSub := watch.Changes(ctx, h.interval,
		func(ctx context.Context) ([]records.IntakeConfirmation, error) {
			return h.intakes.ListByPatient(ctx, patientID)
		},
		func(cs []records.IntakeConfirmation) {
			select {
			case events <- streamEvent{Type: "intakes", Intakes: cs}:
			case <-ctx.Done():
			}
		},
		h.logger,
	)

	// Cancel the handler ctx before awaiting the feeds: an onChange blocked
	// on a full events channel only unblocks through ctx.Done.
	defer func() {
		cancel()
		rxSub.Cancel()
		intakeSub.Cancel()
	}()

	// Drain client frames so pings are answered and closes detected.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			if err := conn.WriteJSON(evt); err != nil {
				h.logger.Debug("stream: write failed, closing", "error", err)
				return
			}
		}
	}
}
