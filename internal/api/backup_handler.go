package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/service/backup"
)

// MaxBackupBytes bounds the size of an uploaded backup document.
const MaxBackupBytes = 64 << 20

// BackupHandler exports and imports user data.
type BackupHandler struct {
	service backup.Service
	logger  *slog.Logger
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(service backup.Service, log *slog.Logger) *BackupHandler {
	if service == nil {
		panic("backup service cannot be nil") // ALLOW-PANIC: constructor invariant
	}
	if log == nil {
		log = slog.Default()
	}
	return &BackupHandler{
		service: service,
		logger:  log.With(slog.String("component", "backup_handler")),
	}
}

// Export handles GET /api/backup. The document is sent as an attachment.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Export(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="recall-backup-%s.json"`, doc.ExportedAt.Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	if err := backup.Encode(w, doc); err != nil {
		logFrom(r, h.logger).Error("failed to write backup", slog.String("error", err.Error()))
	}
}

// Import handles POST /api/backup.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	doc, err := backup.Decode(http.MaxBytesReader(w, r.Body, MaxBackupBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge, "Backup too large", err)
			return
		}
		HandleAPIError(w, r, err, "Invalid backup document")
		return
	}

	summary, err := h.service.Import(r.Context(), userID, doc)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logFrom(r, h.logger).Info("backup imported",
		slog.Int("results", summary.Results),
		slog.Int("history", summary.History),
		slog.Int("curricula", summary.Curricula))
	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}
