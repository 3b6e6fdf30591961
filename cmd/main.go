package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/quickcart/backend/internal/auth"
	"github.com/quickcart/backend/internal/cache"
	"github.com/quickcart/backend/internal/catalog"
	"github.com/quickcart/backend/internal/config"
	"github.com/quickcart/backend/internal/logger"
	"github.com/quickcart/backend/internal/memo"
	"github.com/quickcart/backend/internal/middleware"
	"github.com/quickcart/backend/internal/otp"
	"github.com/quickcart/backend/internal/ratelimit"
)

func main() {
	// Plain environment variables still apply without a .env file.
	_ = godotenv.Load(".env")

	cfg, err := config.GetConfig()
	if err != nil {
		// The logger needs config, so this failure can only go to stderr.
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(os.Stdout)
	log := logger.Global()
	defer log.Sync()

	store := cache.New(cfg.Redis, log)
	defer store.Close()

	memoizer := memo.New(store, log, time.Duration(cfg.Cache.DefaultTTL))
	limiter := ratelimit.NewLimiter(store, cfg.RateLimit, "api", log)
	blacklist := ratelimit.NewBlacklist(store, log)
	flow := otp.NewFlow(store, cfg.OTP, log)
	authService := auth.NewService(flow, auth.LogSender{Logger: log}, log)

	catalogService, err := catalog.NewService(cfg.Database, memoizer, log)
	if err != nil {
		log.Warn("Catalog database unavailable, read paths disabled", logger.Error(err))
	} else {
		defer catalogService.Close()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/v1/auth/otp/request", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone is required"})
			return
		}

		expiresIn, err := authService.RequestOTP(r.Context(), req.Phone)
		if err != nil {
			if errors.Is(err, auth.ErrPhoneBlocked) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "phone is temporarily blocked"})
				return
			}
			log.Error("Failed to issue OTP", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send otp"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":    "OTP sent successfully",
			"expires_in": expiresIn,
		})
	})

	mux.HandleFunc("/api/v1/auth/otp/verify", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Phone string `json:"phone"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" || req.Code == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone and code are required"})
			return
		}

		if err := authService.ConfirmOTP(r.Context(), req.Phone, req.Code); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "phone verified"})
	})

	handler := middleware.SecurityHeaders(
		middleware.Blacklist(blacklist, log)(
			middleware.RateLimit(limiter)(mux)))

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	log.Info("Server starting",
		logger.String("addr", server.Addr))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed", logger.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
