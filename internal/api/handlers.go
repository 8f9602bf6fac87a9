package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rug-estimator/internal/category"
	"github.com/sells-group/rug-estimator/internal/determine"
	"github.com/sells-group/rug-estimator/internal/estimate"
	"github.com/sells-group/rug-estimator/internal/export"
	"github.com/sells-group/rug-estimator/internal/model"
	"github.com/sells-group/rug-estimator/internal/pricing"
	"github.com/sells-group/rug-estimator/internal/store"
)

// clientDetermination omits the staff review flag and reasons.
type clientDetermination struct {
	Services         []model.DeterminedService `json:"services"`
	ConditionSummary string                    `json:"condition_summary"`
	RiskDisclosure   string                    `json:"risk_disclosure"`
}

type priceRequest struct {
	estimate.Request
	Save bool `json:"save,omitempty"`
}

type priceResponse struct {
	Estimate any                      `json:"estimate"`
	Rejected []model.RejectedOverride `json:"rejected_overrides,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDetermine(w http.ResponseWriter, r *http.Request) {
	var in model.InspectionInput
	if err := s.decodeBody(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_input", err.Error())
		return
	}

	det := determine.DetermineServices(in)
	if staffView(r) {
		writeJSON(w, http.StatusOK, det)
		return
	}
	writeJSON(w, http.StatusOK, clientDetermination{
		Services:         det.Services,
		ConditionSummary: det.ConditionSummary,
		RiskDisclosure:   det.RiskDisclosure,
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := req.Input.Validate(); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_input", err.Error())
		return
	}
	if req.Save && s.store == nil {
		writeError(w, r, http.StatusServiceUnavailable, "no_store", "estimates cannot be saved: no store configured")
		return
	}

	req.Persist = req.Save
	est, err := s.svc.Run(r.Context(), req.Request)
	if eris.Is(err, determine.ErrUnknownService) {
		writeError(w, r, http.StatusUnprocessableEntity, "unknown_service", err.Error())
		return
	}
	if err != nil {
		zap.L().Error("api: price failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal", "pricing failed")
		return
	}

	status := http.StatusOK
	if req.Save {
		status = http.StatusCreated
	}
	resp := priceResponse{Rejected: est.Rejected}
	if staffView(r) {
		resp.Estimate = est
	} else {
		resp.Estimate = export.ClientView(est)
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleValidateOverride(w http.ResponseWriter, r *http.Request) {
	var o model.PriceOverride
	if err := s.decodeBody(w, r, &o); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pricing.ValidateOverride(o))
}

func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "missing_name", "name query parameter is required")
		return
	}
	c := category.CategorizeService(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     name,
		"category": c,
		"label":    category.Label(c),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, category.All())
}

func (s *Server) handleGetEstimate(w http.ResponseWriter, r *http.Request) {
	est, ok := s.loadEstimate(w, r)
	if !ok {
		return
	}
	if staffView(r) {
		writeJSON(w, http.StatusOK, est)
		return
	}
	writeJSON(w, http.StatusOK, export.ClientView(est))
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.loadEstimate(w, r); !ok {
		return
	}
	recs, err := s.store.ListOverrides(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Error("api: list overrides", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal", "failed to list overrides")
		return
	}
	if recs == nil {
		recs = []model.OverrideRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleListEstimates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EstimateFilter{
		Reference:  q.Get("reference"),
		ReviewOnly: q.Get("review") == "true",
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_offset", err.Error())
		return
	}

	list, err := s.store.ListEstimates(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list estimates", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal", "failed to list estimates")
		return
	}
	if list == nil {
		list = []model.EstimateSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) loadEstimate(w http.ResponseWriter, r *http.Request) (*model.Estimate, bool) {
	id := chi.URLParam(r, "id")
	est, err := s.store.GetEstimate(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "not_found", "estimate "+id+" not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("api: get estimate", zap.String("id", id), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal", "failed to load estimate")
		return nil, false
	}
	return est, true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("api: %q is not a non-negative integer", v)
	}
	return n, nil
}
