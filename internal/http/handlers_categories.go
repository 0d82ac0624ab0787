package http

import (
	"net/http"
	"strings"

	"bilancio/internal/core"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	LegacyLimit string `json:"legacy_limit"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var limit *core.Money
	if strings.TrimSpace(req.LegacyLimit) != "" {
		amount, err := parseAmount(req.LegacyLimit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		limit = &amount
	}

	category, err := s.ledger.CreateCategory(r.Context(), req.Name, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	dtos := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusNoContent, nil)
}

type setBudgetRequest struct {
	PeriodStart string `json:"period_start"`
	Amount      string `json:"amount"`
}

// handleSetCategoryBudget upserts the budget version for the period containing
// period_start. A retroactive edit checkpoints the following period first so
// past corrections never leak forward.
func (s *Server) handleSetCategoryBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req setBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	periodStart := s.now().UTC()
	if req.PeriodStart != "" {
		if periodStart, err = parseDate(req.PeriodStart); err != nil {
			writeError(w, r, err)
			return
		}
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.budgets.SetCategoryBudget(r.Context(), id, periodStart, amount, s.now()); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports()
	resolution, err := s.budgets.ResolveEffectiveBudget(r.Context(), id, s.budgets.PeriodFor(periodStart).Start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(resolution))
}

type removeBudgetRequest struct {
	PeriodStart string `json:"period_start"`
}

func (s *Server) handleRemoveCategoryBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	periodStart := s.now().UTC()
	if r.ContentLength > 0 {
		var req removeBudgetRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.PeriodStart != "" {
			if periodStart, err = parseDate(req.PeriodStart); err != nil {
				writeError(w, r, err)
				return
			}
		}
	}

	if err := s.budgets.RemoveCategoryBudget(r.Context(), id, periodStart, s.now()); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleResolveBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reference, err := parseDateParam(r, "period_start", s.now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resolution, err := s.budgets.ResolveEffectiveBudget(r.Context(), id, s.budgets.PeriodFor(reference).Start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetDTO(resolution))
}
