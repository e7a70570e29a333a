package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resto-admin-services/internal/reports"
	"resto-admin-services/internal/utils"
	"resto-admin-services/pkg/response"

	"go.uber.org/zap"
)

func (h *Handler) AdminSalesReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	loc := h.location()

	from, to, err := utils.ParseDateRange(query.Get("from"), query.Get("to"), loc, time.Now())
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "pdf" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "format must be json, csv or pdf")
		return
	}
	archive := query.Get("archive") == "1" || strings.EqualFold(query.Get("archive"), "true")
	if archive && h.Archive == nil {
		response.Error(w, http.StatusServiceUnavailable, "ARCHIVE_UNAVAILABLE", "Report archiving is not configured")
		return
	}

	summary, err := reports.LoadSalesSummary(ctx, h.Store, from, to)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if summary.Mismatches > 0 {
		h.Logger.Warn("sales report found mismatched payments",
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Int("mismatches", summary.Mismatches),
		)
	}

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "csv":
		var buf bytes.Buffer
		if err := reports.WriteCSV(&buf, summary, loc); err != nil {
			h.writeError(w, r, err, "")
			return
		}
		body, contentType = buf.Bytes(), "text/csv; charset=utf-8"
	case "pdf":
		body, err = reports.RenderPDF(summary, loc)
		if err != nil {
			h.writeError(w, r, err, "")
			return
		}
		contentType = "application/pdf"
	}

	if !archive {
		if format == "json" {
			response.Success(w, salesReportView(summary))
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFileName(from, to, format, loc)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	if format == "json" {
		view := salesReportView(summary)
		body, err = jsonBytes(view)
		if err != nil {
			h.writeError(w, r, err, "")
			return
		}
		contentType = "application/json"
	}
	stored, err := h.Archive.ArchiveReport(ctx, reportFileName(from, to, format, loc), body, contentType)
	if err != nil {
		h.Logger.Error("archive report failed", zapError(err))
		response.Error(w, http.StatusBadGateway, "ARCHIVE_FAILED", "Failed to archive report")
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"archive":      stored,
			"paymentCount": summary.PaymentCount,
			"revenue":      money(summary.Revenue),
			"mismatches":   summary.Mismatches,
		},
		"message": "Report archived",
	})
}

func reportFileName(from, to time.Time, format string, loc *time.Location) string {
	last := to.In(loc).AddDate(0, 0, -1)
	return fmt.Sprintf("sales-%s-%s.%s", from.In(loc).Format("20060102"), last.Format("20060102"), format)
}

func jsonBytes(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
