package dashboard

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"finanzas/internal/log"
)

var (
	plotlyCache string
	plotlyURL   string
	cdnClient   = &http.Client{Timeout: 30 * time.Second}
)

// SetPlotlySource sets the CDN address and the data directory whose cache/
// subdirectory keeps the downloaded copy
func SetPlotlySource(dataDir, url string) {
	plotlyCache = filepath.Join(dataDir, "cache", "plotly.min.js")
	plotlyURL = url
}

func writeScript(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Write(data)
}

// HandlePlotly serves plotly.min.js from the cache, fetching it from the CDN
// on first use
func HandlePlotly(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	if data, err := os.ReadFile(plotlyCache); err == nil {
		writeScript(w, data)
		return
	}

	logger.Info("fetching plotly.min.js", "url", plotlyURL)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, plotlyURL, nil)
	if err != nil {
		http.Error(w, "Failed to fetch plotly: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp, err := cdnClient.Do(req)
	if err != nil {
		http.Error(w, "Failed to fetch plotly: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("plotly CDN error", log.FieldStatusCode, resp.StatusCode)
		http.Error(w, "CDN returned status: "+resp.Status, http.StatusBadGateway)
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "Failed to read plotly response: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := os.MkdirAll(filepath.Dir(plotlyCache), 0755); err != nil {
		logger.Warn("could not create cache directory", log.FieldError, err)
	}
	if err := os.WriteFile(plotlyCache, data, 0644); err != nil {
		logger.Warn("could not cache plotly.min.js", log.FieldError, err)
	} else {
		logger.Info("cached plotly.min.js", "path", plotlyCache)
	}

	writeScript(w, data)
}
