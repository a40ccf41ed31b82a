package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigHandler routes API requests for /api/config to the appropriate
// handler based on the HTTP method. It also passes the config file path
// to the handlers.
func ConfigHandler(cfile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getConfigHandler(w, r, cfile)
		case http.MethodPost:
			setConfigHandler(w, r, cfile)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// getConfigHandler reads the current config file, extracts the
// runtime-safe configuration, and returns it as JSON.
func getConfigHandler(w http.ResponseWriter, r *http.Request, cfile string) {
	slog.Info("Handling GET /api/config request")
	// We read the file on every request to ensure we always have the
	// latest version. The realhw flag is false because it only gates
	// validation of the hardware section, which the API never exposes.
	fullConfig, err := ReadConfig(cfile, false)
	if err != nil {
		slog.Error("Failed to read config file for API", "error", err)
		http.Error(w, "Failed to read configuration", http.StatusInternalServerError)
		return
	}

	runtimeConfig := RuntimeConfig{
		Firefly:     fullConfig.Firefly,
		NightWindow: fullConfig.NightWindow,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(runtimeConfig); err != nil {
		slog.Error("Failed to encode runtime config to JSON", "error", err)
		http.Error(w, "Failed to serialize configuration", http.StatusInternalServerError)
	}
}

// setConfigHandler receives a JSON payload with runtime configuration,
// merges it with the full configuration on disk, validates it, and
// writes it back.
func setConfigHandler(w http.ResponseWriter, r *http.Request, cfile string) {
	slog.Info("Handling POST /api/config request")
	var newRuntimeConfig RuntimeConfig
	if err := json.NewDecoder(r.Body).Decode(&newRuntimeConfig); err != nil {
		slog.Error("Failed to decode incoming JSON", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Read the current full configuration from disk to preserve the
	// hardware settings the API must not touch.
	fullConfig, err := ReadConfig(cfile, false)
	if err != nil {
		slog.Error("Failed to read existing config for update", "error", err)
		http.Error(w, "Failed to read configuration", http.StatusInternalServerError)
		return
	}

	fullConfig.Firefly = newRuntimeConfig.Firefly
	fullConfig.NightWindow = newRuntimeConfig.NightWindow

	if err := fullConfig.Validate(); err != nil {
		slog.Error("Validation failed for new config", "error", err)
		http.Error(w, fmt.Sprintf("Invalid configuration: %v", err), http.StatusBadRequest)
		return
	}

	yamlData, err := yaml.Marshal(&fullConfig)
	if err != nil {
		slog.Error("Failed to marshal merged config to YAML", "error", err)
		http.Error(w, "Failed to prepare configuration for saving", http.StatusInternalServerError)
		return
	}

	// Writing the file triggers the watcher and with it the reload.
	if err := os.WriteFile(cfile, yamlData, 0o644); err != nil {
		slog.Error("Failed to write updated config file", "error", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}

	slog.Info("Successfully updated config file, application will reload.")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Configuration updated successfully.")
}
