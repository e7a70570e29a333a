package handlers

import (
	"net/http"

	"resto-admin-services/pkg/response"
)

func (h *Handler) AdminTablesList(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Store.ListTables(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Tables not found")
		return
	}
	out := make([]TableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableView(t))
	}
	response.Success(w, out)
}
