package http

import (
	"net/http"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

type recordTransactionRequest struct {
	Amount          string `json:"amount"`
	Date            string `json:"date"`
	Type            string `json:"type"`
	CategoryID      *int64 `json:"category_id"`
	AccountID       int64  `json:"account_id"`
	TargetAccountID *int64 `json:"target_account_id"`
	Note            string `json:"note"`
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req recordTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date := s.now().UTC()
	if req.Date != "" {
		if date, err = parseDate(req.Date); err != nil {
			writeError(w, r, err)
			return
		}
	}

	tx, err := s.ledger.RecordTransaction(r.Context(), services.RecordTransactionParams{
		Amount:          amount,
		Date:            date,
		Type:            core.TransactionType(req.Type),
		CategoryID:      req.CategoryID,
		AccountID:       req.AccountID,
		TargetAccountID: req.TargetAccountID,
		Note:            req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Transaction accepted",
		applog.NewFields().
			WithTransaction(tx.ID, string(tx.Type), tx.Amount.Cents).
			WithOperation(applog.OpCreate).
			ToSlice()...)

	s.invalidateReports()
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

type editTransactionRequest struct {
	Amount     *string `json:"amount"`
	Date       *string `json:"date"`
	CategoryID *int64  `json:"category_id"`
	Note       *string `json:"note"`
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req editTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var params services.EditTransactionParams
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		params.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, r, err)
			return
		}
		params.Date = &date
	}
	params.CategoryID = req.CategoryID
	params.Note = req.Note

	tx, err := s.ledger.EditTransaction(r.Context(), id, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	// Default window is the configured period containing today.
	period := s.budgets.PeriodFor(s.now())

	from, err := parseDateParam(r, "from", period.Start)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseDateParam(r, "to", period.End)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !to.After(from) {
		writeError(w, r, badRequest("empty window: from %s, to %s", from.Format(dateLayout), to.Format(dateLayout)))
		return
	}

	txs, err := s.ledger.ListTransactions(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	dtos := make([]transactionDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, toTransactionDTO(tx))
	}
	writeJSON(w, http.StatusOK, dtos)
}
