package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/marketplace-system/internal/model"
)

type withdrawalResponse struct {
	model.Withdrawal
	Amount float64 `json:"amount"`
}

func toWithdrawalResponse(w model.Withdrawal) withdrawalResponse {
	return withdrawalResponse{Withdrawal: w, Amount: model.CentsToAmount(w.AmountCents)}
}

type withdrawRequest struct {
	Amount float64 `json:"amount"`
}

// CreateWithdrawRequest создаёт заявку текущего продавца на вывод средств.
func (h *Handler) CreateWithdrawRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req withdrawRequest
	if !h.decode(w, r, &req) {
		return
	}

	withdrawal, err := h.service.CreateWithdrawal(r.Context(), p.ID, req.Amount)
	if err != nil {
		h.handleServiceError(w, err, "create withdraw error",
			zap.Int64("shopID", p.ID), zap.Float64("amount", req.Amount))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"withdraw": toWithdrawalResponse(*withdrawal)})
}

// GetAllWithdrawRequests возвращает все заявки на вывод средств.
func (h *Handler) GetAllWithdrawRequests(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.service.ListWithdrawals(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list withdrawals error")
		return
	}

	resp := make([]withdrawalResponse, 0, len(withdrawals))
	for _, wd := range withdrawals {
		resp = append(resp, toWithdrawalResponse(wd))
	}

	h.writeJSON(w, http.StatusCreated, envelope{"withdraws": resp})
}

// UpdateWithdrawRequest подтверждает заявку на вывод средств.
func (h *Handler) UpdateWithdrawRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	withdrawal, err := h.service.ApproveWithdrawal(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "approve withdraw error", zap.Int64("withdrawID", id))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"withdraw": toWithdrawalResponse(*withdrawal)})
}
