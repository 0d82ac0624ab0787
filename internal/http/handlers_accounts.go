package http

import (
	"net/http"
	"strings"

	"bilancio/internal/core"
)

type createAccountRequest struct {
	Name           string `json:"name"`
	OpeningBalance string `json:"opening_balance"`
	SortOrder      int    `json:"sort_order"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	// Opening balances may be negative (an account can start in debt).
	var opening core.Money
	if strings.TrimSpace(req.OpeningBalance) != "" {
		cents, err := core.ParseSignedDecimalToCents(req.OpeningBalance)
		if err != nil {
			writeError(w, r, badRequest("invalid opening balance %q: %v", req.OpeningBalance, err))
			return
		}
		opening = core.Money{Cents: cents}
	}

	account, err := s.ledger.CreateAccount(r.Context(), req.Name, opening, req.SortOrder)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	accounts, err := s.ledger.ListAccounts(r.Context(), includeArchived)
	if err != nil {
		writeError(w, r, err)
		return
	}

	dtos := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

type archiveAccountRequest struct {
	Archived *bool `json:"archived"`
}

func (s *Server) handleArchiveAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Empty body means archive; {"archived": false} restores.
	archived := true
	if r.ContentLength > 0 {
		var req archiveAccountRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Archived != nil {
			archived = *req.Archived
		}
	}

	if err := s.ledger.SetAccountArchived(r.Context(), id, archived); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusNoContent, nil)
}
