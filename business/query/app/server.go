// Package app contains the read-only query API over persisted snapshots.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	monitorApp "github.com/fd1az/spread-monitor/business/monitor/app"
	monitorDomain "github.com/fd1az/spread-monitor/business/monitor/domain"
	"github.com/fd1az/spread-monitor/business/monitor/infra/storage"
	"github.com/fd1az/spread-monitor/internal/logger"
)

const defaultAlertLimit = 100

// Server is a passive consumer of the monitor's outputs. It never writes;
// operators change behavior by editing the rules file the pipeline reloads.
type Server struct {
	store   storage.Store
	configs monitorApp.ConfigProvider
	port    int
	log     logger.LoggerInterface
	server  *http.Server
}

// NewServer creates a query API server.
func NewServer(store storage.Store, configs monitorApp.ConfigProvider, port int, log logger.LoggerInterface) *Server {
	return &Server{
		store:   store,
		configs: configs,
		port:    port,
		log:     log,
	}
}

// Handler returns the route table, exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/v1/opportunities", s.handleOpportunities)
	mux.HandleFunc("GET /api/v1/alerts", s.handleAlerts)
	mux.HandleFunc("GET /api/v1/config", s.handleConfig)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error(context.Background(), "query server stopped", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// opportunityView is the wire shape of one persisted opportunity.
type opportunityView struct {
	BuyExchange     string            `json:"buy_exchange"`
	SellExchange    string            `json:"sell_exchange"`
	Product         string            `json:"product"`
	BestBuyPrice    float64           `json:"best_buy_price"`
	BestSellPrice   float64           `json:"best_sell_price"`
	GrossSpread     float64           `json:"gross_spread"`
	NetSpread       float64           `json:"net_spread"`
	AvailableVolume float64           `json:"available_volume"`
	Metadata        map[string]string `json:"metadata"`
}

// alertView is the wire shape of one dispatched alert.
type alertView struct {
	BuyExchange     string            `json:"buy_exchange"`
	SellExchange    string            `json:"sell_exchange"`
	Product         string            `json:"product"`
	NetSpread       float64           `json:"net_spread"`
	GrossSpread     float64           `json:"gross_spread"`
	AvailableVolume float64           `json:"available_volume"`
	RecordedAt      string            `json:"recorded_at"`
	Metadata        map[string]string `json:"metadata"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name": "spread-monitor query API",
		"endpoints": map[string]string{
			"opportunities": "/api/v1/opportunities",
			"alerts":        "/api/v1/alerts",
			"config":        "/api/v1/config",
			"health":        "/health",
		},
	})
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minNet, err := floatParam(q.Get("min_net_spread"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid min_net_spread")
		return
	}
	minVolume, err := floatParam(q.Get("min_volume"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid min_volume")
		return
	}
	buyExchange := q.Get("buy_exchange")
	sellExchange := q.Get("sell_exchange")

	records, err := s.store.ListByKind(r.Context(), monitorDomain.KindOpportunity, 0)
	if err != nil {
		s.log.Error(r.Context(), "query read failed", "kind", monitorDomain.KindOpportunity, "error", err)
		writeError(w, http.StatusInternalServerError, "storage read failed")
		return
	}

	views := make([]opportunityView, 0, len(records))
	for _, rec := range records {
		v := opportunityView{
			BuyExchange:     payloadString(rec.Payload, "buy_exchange"),
			SellExchange:    payloadString(rec.Payload, "sell_exchange"),
			Product:         rec.Product,
			BestBuyPrice:    payloadFloat(rec.Payload, "best_buy_price"),
			BestSellPrice:   payloadFloat(rec.Payload, "best_sell_price"),
			GrossSpread:     payloadFloat(rec.Payload, "gross_spread"),
			NetSpread:       payloadFloat(rec.Payload, "net_spread"),
			AvailableVolume: payloadFloat(rec.Payload, "available_volume"),
			Metadata:        viewMetadata(rec.Metadata),
		}
		if minNet != nil && v.NetSpread < *minNet {
			continue
		}
		if minVolume != nil && v.AvailableVolume < *minVolume {
			continue
		}
		if buyExchange != "" && v.BuyExchange != buyExchange {
			continue
		}
		if sellExchange != "" && v.SellExchange != sellExchange {
			continue
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(a, b int) bool {
		return views[a].NetSpread > views[b].NetSpread
	})

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minNet, err := floatParam(q.Get("min_net_spread"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid min_net_spread")
		return
	}
	buyExchange := q.Get("buy_exchange")
	sellExchange := q.Get("sell_exchange")

	limit := defaultAlertLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := s.store.ListByKind(r.Context(), monitorDomain.KindAlert, 0)
	if err != nil {
		s.log.Error(r.Context(), "query read failed", "kind", monitorDomain.KindAlert, "error", err)
		writeError(w, http.StatusInternalServerError, "storage read failed")
		return
	}

	views := make([]alertView, 0, len(records))
	for _, rec := range records {
		v := alertView{
			BuyExchange:     payloadString(rec.Payload, "buy_exchange"),
			SellExchange:    payloadString(rec.Payload, "sell_exchange"),
			Product:         rec.Product,
			NetSpread:       payloadFloat(rec.Payload, "net_spread"),
			GrossSpread:     payloadFloat(rec.Payload, "gross_spread"),
			AvailableVolume: payloadFloat(rec.Payload, "available_volume"),
			RecordedAt:      rec.RecordedAt,
			Metadata:        viewMetadata(rec.Metadata),
		}
		if minNet != nil && v.NetSpread < *minNet {
			continue
		}
		if buyExchange != "" && v.BuyExchange != buyExchange {
			continue
		}
		if sellExchange != "" && v.SellExchange != sellExchange {
			continue
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(a, b int) bool {
		return views[a].RecordedAt > views[b].RecordedAt
	})

	if len(views) > limit {
		views = views[:limit]
	}

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.configs.Current()

	fees := make(map[string]map[string]float64, len(cfg.FeeProfiles))
	for exchange, profile := range cfg.FeeProfiles {
		fees[exchange] = map[string]float64{
			"taker_percent":  profile.TakerPercent.InexactFloat64(),
			"withdrawal_fee": profile.WithdrawalFee.InexactFloat64(),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alert_rule": map[string]any{
			"min_net_spread":   cfg.AlertRule.MinNetSpread.InexactFloat64(),
			"min_volume":       cfg.AlertRule.MinVolume.InexactFloat64(),
			"cooldown_seconds": int(cfg.AlertRule.Cooldown.Seconds()),
		},
		"fees": fees,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func floatParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func payloadString(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

func payloadFloat(payload map[string]any, key string) float64 {
	v, _ := payload[key].(float64)
	return v
}

func viewMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return map[string]string{}
	}
	return metadata
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
