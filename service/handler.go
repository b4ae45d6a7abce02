package service

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/PanGan21/indexer-go/model/payments"
)

// receiptHeader carries the JSON-encoded signed receipt on query requests.
const receiptHeader = "Tap-Receipt"

// QueryHandler is the excluded query-execution collaborator: it appraises
// what a query should cost and, once payment clears, answers it.
type QueryHandler interface {
	Appraise(deployment payments.DeploymentID, body []byte) (*big.Int, error)
	Execute(ctx context.Context, deployment payments.DeploymentID, body []byte) ([]byte, error)
}

type queryHandler struct {
	log     zerolog.Logger
	service *Service
	queries QueryHandler
}

// ServeHTTP answers one paid query: appraise, store the appraisal, validate
// the receipt, then execute.
func (h *queryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	deploymentRaw := mux.Vars(r)["deployment"]
	deployment := payments.DeploymentID(common.HexToHash(deploymentRaw))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}

	raw := r.Header.Get(receiptHeader)
	if raw == "" {
		http.Error(w, ErrNoReceipt.Error(), StatusFor(ErrNoReceipt))
		return
	}
	var signed payments.SignedReceipt
	if err := json.Unmarshal([]byte(raw), &signed); err != nil || signed.Receipt.Value == nil {
		http.Error(w, "malformed receipt", http.StatusBadRequest)
		return
	}

	value, err := h.queries.Appraise(deployment, body)
	if err != nil {
		h.log.Error().Err(err).Msg("could not appraise query")
		http.Error(w, "could not appraise query", http.StatusInternalServerError)
		return
	}
	err = h.service.AppraiseAndStore(signed.UniqueHash(), value)
	if err != nil {
		h.log.Error().Err(err).Msg("could not store appraisal")
		http.Error(w, "could not store appraisal", http.StatusInternalServerError)
		return
	}

	_, err = h.service.ValidateReceipt(r.Context(), deployment, &signed)
	if err != nil {
		// payment rejections are expected traffic; keep them quiet
		h.log.Debug().Err(err).Msg("receipt rejected")
		http.Error(w, err.Error(), StatusFor(err))
		return
	}

	response, err := h.queries.Execute(r.Context(), deployment, body)
	if err != nil {
		h.log.Error().Err(err).Msg("could not execute query")
		http.Error(w, "could not execute query", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(response)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("service is up and running"))
}
