package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/magnetchain/bridge-tracker/pkg/bridge"
	"github.com/magnetchain/bridge-tracker/pkg/ethereum"
	"github.com/magnetchain/bridge-tracker/pkg/ledger"
)

func newTestServer(trk *Tracker) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, trk, zap.NewNop())
	return r
}

type errorBody struct {
	Error    string `json:"error"`
	Code     int    `json:"code"`
	Category string `json:"category"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var got errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestDepositHTTP_InvalidJSON(t *testing.T) {
	trk := newTestTracker(nil, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, newMemLedger(), nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodPost, "/deposits", bytes.NewBufferString("{invalid"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON", decodeError(t, rec).Error)
}

func TestDepositHTTP_BelowFloor(t *testing.T) {
	trk := newTestTracker(nil, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, newMemLedger(), nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodPost, "/deposits",
		bytes.NewBufferString(`{"amount":"9999"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	got := decodeError(t, rec)
	assert.Equal(t, "CategoryValidation", got.Category)
	assert.Contains(t, got.Error, "10000")
}

func TestDepositHTTP_Accepted(t *testing.T) {
	magnet := &mockChain{
		chainID: 114514,
		BalanceAtFunc: func(context.Context, common.Address) (*big.Int, error) {
			return ethereum.ToWei(decimal.NewFromInt(1_000_000)), nil
		},
		SendNativeTransferFunc: func(context.Context, common.Address, *big.Int) (common.Hash, error) {
			return common.HexToHash(testTxHash), nil
		},
	}
	trk := newTestTracker(nil, magnet, &mockChain{chainID: 97}, newMemLedger(), nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodPost, "/deposits",
		bytes.NewBufferString(`{"amount":"12000"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var got struct {
		TxHash      string `json:"txHash"`
		ExplorerURL string `json:"explorerUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, testTxHash, got.TxHash)
	assert.Contains(t, got.ExplorerURL, "magnet.tryethernal.com/tx/")
}

func TestWithdrawHTTP_DestinationValidation(t *testing.T) {
	cfg := testBridgeConfig()
	cfg.ActiveChainID = 97
	trk := newTestTracker(cfg, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, newMemLedger(), nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodPost, "/withdrawals",
		bytes.NewBufferString(`{"destination":"not-an-address","amount":"50"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request payload", decodeError(t, rec).Error)
}

func TestWithdrawHTTP_WrongNetworkConflict(t *testing.T) {
	// active chain left at Magnet: withdrawals must be refused
	trk := newTestTracker(nil, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, newMemLedger(), nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodPost, "/withdrawals",
		bytes.NewBufferString(`{"destination":"0x1234567890123456789012345678901234567890","amount":"50"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CategoryWrongNetwork", decodeError(t, rec).Category)
}

func TestTransactionHTTP_RequiresType(t *testing.T) {
	trk := newTestTracker(nil, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, newMemLedger(), nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodGet, "/transactions/"+testTxHash, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionHTTP_MissReturnsPlaceholder(t *testing.T) {
	trk := newTestTracker(nil, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, newMemLedger(), nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodGet,
		"/transactions/"+testTxHash+"?type=deposit", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Status                string `json:"status"`
		Confirmations         int    `json:"confirmations"`
		RequiredConfirmations int    `json:"requiredConfirmations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, 0, got.Confirmations)
	assert.Equal(t, 12, got.RequiredConfirmations)
}

func TestAccountTransactionsHTTP(t *testing.T) {
	l := newMemLedger()
	l.Upsert(context.Background(), testSigner, ledger.Patch{
		TxHash: "test-a", Type: ledger.TypeDeposit, Status: ledger.StatusConfirming,
	})
	trk := newTestTracker(nil, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, l, nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodGet, "/accounts/"+testSigner+"/transactions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "test-a", got[0]["txHash"])

	req = httptest.NewRequest(http.MethodGet, "/accounts/not-an-address/transactions", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBridgeParametersHTTP(t *testing.T) {
	params := &mockParams{snapshot: &bridge.Parameters{
		FeeRatio:  decimal.RequireFromString("0.005"),
		MinAmount: decimal.NewFromInt(10),
	}}
	trk := newTestTracker(nil, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, newMemLedger(), params)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodGet, "/bridge/parameters", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Paused   bool   `json:"paused"`
		FeeRatio string `json:"feeRatio"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Paused)
	assert.Equal(t, "0.005", got.FeeRatio)
}

func TestBridgeFeeHTTP(t *testing.T) {
	trk := newTestTracker(nil, &mockChain{chainID: 114514}, &mockChain{chainID: 97}, newMemLedger(), nil)
	handler := newTestServer(trk)

	req := httptest.NewRequest(http.MethodGet, "/bridge/fee?amount=12000", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "60", got["fee"])
}
