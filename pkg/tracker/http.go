package tracker

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/magnetchain/bridge-tracker/pkg/app/errors"
	apphttp "github.com/magnetchain/bridge-tracker/pkg/app/http"
	"github.com/magnetchain/bridge-tracker/pkg/config"
	"github.com/magnetchain/bridge-tracker/pkg/ledger"
)

var validate = validator.New()

// HTTP exposes the tracker over REST
type HTTP struct {
	tracker *Tracker
	logger  *zap.Logger
}

// RegisterRoutes registers the tracker endpoints on the given chi router
func RegisterRoutes(r chi.Router, t *Tracker, logger *zap.Logger) {
	h := &HTTP{tracker: t, logger: logger}

	r.Post("/deposits", apphttp.HandleError(h.submitDeposit))
	r.Post("/withdrawals", apphttp.HandleError(h.submitWithdraw))
	r.Get("/transactions/{hash}", apphttp.HandleError(h.getTransaction))
	r.Post("/transactions/{hash}/poll", apphttp.HandleError(h.pollTransaction))
	r.Get("/accounts/{address}/transactions", apphttp.HandleError(h.listTransactions))
	r.Get("/bridge/parameters", apphttp.HandleError(h.bridgeParameters))
	r.Get("/bridge/fee", apphttp.HandleError(h.estimateFee))
}

type depositRequest struct {
	Amount string `json:"amount" validate:"required"`
}

type withdrawRequest struct {
	Destination string `json:"destination" validate:"required,eth_addr"`
	Amount      string `json:"amount" validate:"required"`
}

type submitResponse struct {
	TxHash      string `json:"txHash"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// transactionResponse decorates a ledger record with the source-chain
// explorer link.
type transactionResponse struct {
	*ledger.Record
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

func newTransactionResponse(rec *ledger.Record) transactionResponse {
	return transactionResponse{
		Record:      rec,
		ExplorerURL: config.ExplorerTxURL(rec.FromChain, rec.TxHash),
	}
}

func (h *HTTP) submitDeposit(w http.ResponseWriter, r *http.Request) error {
	var req depositRequest
	if err := decodeRequest(r, &req); err != nil {
		return err
	}

	txHash, err := h.tracker.SubmitDeposit(r.Context(), req.Amount)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusAccepted, submitResponse{
		TxHash:      txHash,
		ExplorerURL: config.ExplorerTxURL(ledger.ChainMagnet, txHash),
	})
	return nil
}

func (h *HTTP) submitWithdraw(w http.ResponseWriter, r *http.Request) error {
	var req withdrawRequest
	if err := decodeRequest(r, &req); err != nil {
		return err
	}

	txHash, err := h.tracker.SubmitWithdraw(r.Context(), req.Destination, req.Amount)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusAccepted, submitResponse{
		TxHash:      txHash,
		ExplorerURL: config.ExplorerTxURL(ledger.ChainBSC, txHash),
	})
	return nil
}

func (h *HTTP) getTransaction(w http.ResponseWriter, r *http.Request) error {
	txHash := chi.URLParam(r, "hash")
	txType := ledger.TxType(r.URL.Query().Get("type"))
	if !txType.Valid() {
		return apperrors.ValidationError(nil, "type query parameter must be deposit or withdraw")
	}

	account, err := h.resolveAccount(r, txType)
	if err != nil {
		return err
	}

	rec, err := h.tracker.GetStatus(r.Context(), account, txHash, txType)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, newTransactionResponse(rec))
	return nil
}

func (h *HTTP) pollTransaction(w http.ResponseWriter, r *http.Request) error {
	txHash := chi.URLParam(r, "hash")
	txType := ledger.TxType(r.URL.Query().Get("type"))
	if !txType.Valid() {
		return apperrors.ValidationError(nil, "type query parameter must be deposit or withdraw")
	}

	account, err := h.resolveAccount(r, txType)
	if err != nil {
		return err
	}

	rec, err := h.tracker.ManualPoll(r.Context(), account, txHash, txType)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusAccepted, newTransactionResponse(rec))
	return nil
}

func (h *HTTP) listTransactions(w http.ResponseWriter, r *http.Request) error {
	address := chi.URLParam(r, "address")
	if !addressPattern.MatchString(address) {
		return apperrors.ValidationError(nil, "address must be a 0x-prefixed 20-byte hex address")
	}

	records, err := h.tracker.ListTransactions(r.Context(), address)
	if err != nil {
		return err
	}

	resp := make([]transactionResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, newTransactionResponse(rec))
	}
	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) bridgeParameters(w http.ResponseWriter, r *http.Request) error {
	params, err := h.tracker.BridgeParameters(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, params)
	return nil
}

func (h *HTTP) estimateFee(w http.ResponseWriter, r *http.Request) error {
	fee, err := h.tracker.EstimateFee(r.URL.Query().Get("amount"))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]string{"fee": fee.String()})
	return nil
}

// resolveAccount picks the ledger partition for a request: an explicit
// account query parameter wins, otherwise the signer of the type's
// source chain.
func (h *HTTP) resolveAccount(r *http.Request, txType ledger.TxType) (string, error) {
	if account := r.URL.Query().Get("account"); account != "" {
		if !addressPattern.MatchString(account) {
			return "", apperrors.ValidationError(nil, "account must be a 0x-prefixed 20-byte hex address")
		}
		return account, nil
	}
	if addr, ok := h.tracker.sourceChain(txType).Account(); ok {
		return addr.Hex(), nil
	}
	return "", apperrors.ValidationError(nil, "account query parameter is required")
}

func decodeRequest(r *http.Request, req any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return apperrors.ValidationError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, req); err != nil {
		return apperrors.ValidationError(err, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return apperrors.ValidationError(err, "invalid request payload")
	}
	return nil
}
