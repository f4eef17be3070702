package web

import (
	"net/http"
	"strconv"
	"strings"

	"bagsberry/internal/application/orchestrators"
	"bagsberry/internal/domain/outbox"
)

// outboxProcessor builds a processor with the live email executor, so a
// manual retry actually attempts delivery.
func outboxProcessor() *orchestrators.OutboxProcessor {
	return orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeOrderEmail: &orchestrators.EmailExecutor{
			Sender:      emailSender,
			FromAddress: emailFromAddress,
		},
	})
}

// handleAdminOutbox handles the email retry queue.
// Routes: GET /api/admin/outbox (list failed or all pending entries),
// POST /api/admin/outbox/{id}/retry, POST /api/admin/outbox/{id}/abandon.
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case "GET":
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		var entries []outbox.Entry
		var err error
		if r.URL.Query().Get("status") == "pending" {
			entries, err = stores.OutboxStore.ListPending(ctx, limit)
		} else {
			entries, err = stores.OutboxStore.ListFailed(ctx, limit)
		}
		if err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, entries)

	case "POST":
		// Path shape: /api/admin/outbox/{id}/{action}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 5 {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}
		entryID, action := parts[3], parts[4]

		processor := outboxProcessor()
		switch action {
		case "retry":
			if err := processor.ProcessSingle(ctx, entryID); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]string{"status": "retry triggered"})

		case "abandon":
			if err := processor.AbandonEntry(ctx, entryID); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, map[string]string{"status": "abandoned"})

		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
		}

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
