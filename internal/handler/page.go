package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/models"
	"github.com/EpicMandM/rental-calendar/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Version              string
	UserInfo             models.UserInfo
	IsWordPressAvailable bool
	CSRFToken            string
	APIURL               string
	Formulas             []models.Tier
	Settings             *service.FeatureConfig
}

// Index renders the calendar page. It renders even when WordPress is down.
func (h *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	csrf, err := h.sessions.CSRFToken(w, r)
	if err != nil {
		h.logger.Error("Failed to issue CSRF token", logger.Action("index"), logger.Error(err))
	}

	data := pageData{
		Version:              h.version,
		UserInfo:             h.sessions.UserInfo(r),
		IsWordPressAvailable: h.content.TestConnection(r.Context()).Success,
		CSRFToken:            csrf,
		APIURL:               h.content.Info().APIURL,
		Formulas:             service.PricingCatalog(),
		Settings:             h.feature,
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "calendar.html", data); err != nil {
		h.logger.Error("Failed to render calendar page", logger.Action("index"), logger.Error(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write calendar page", logger.Action("index"), logger.Error(err))
	}
}
