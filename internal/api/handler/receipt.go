package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/service"
)

// ReceiptHandler serves receipts for completed sales
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// GetReceipt returns the receipt as JSON, or as fixed-width text with
// ?format=text for thermal printers.
func (h *ReceiptHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		api.Error(w, err)
		return
	}

	receipt, err := h.receiptService.GenerateReceipt(r.Context(), r.PathValue("orderId"), user)
	if err != nil {
		api.Error(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, service.RenderText(receipt)); err != nil {
			zap.L().Warn("failed to write receipt", zap.Error(err))
		}
		return
	}

	api.Success(w, "Receipt data generated", receipt)
}
