package botapp

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	paysvc "github.com/moonssword/dating-bot/internal/services/payments"
)

// handlePaymentNotification receives the aggregator's server-to-server
// callback. The signature covers merchant credentials plus the order
// fields, so a verified notification is trusted as-is.
func (a *App) handlePaymentNotification(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	orderID := strings.TrimSpace(r.PostFormValue("order_id"))
	amount := strings.TrimSpace(r.PostFormValue("amount"))
	currency := strings.TrimSpace(r.PostFormValue("currency"))
	rawStatus := strings.TrimSpace(r.PostFormValue("status"))
	sign := strings.TrimSpace(r.PostFormValue("sign"))

	if orderID == "" || rawStatus == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	if !a.payClient.VerifySign(amount, currency, orderID, sign) {
		a.logger.Warn("payment notification signature mismatch", zap.String("order_id", orderID))
		http.Error(w, "bad signature", http.StatusForbidden)
		return
	}

	status := paysvc.StatusFromProvider(rawStatus)
	if !status.Terminal() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}

	order, changed, err := a.payments.ApplyStatus(r.Context(), orderID, status)
	if err != nil {
		if errors.Is(err, paysvc.ErrOrderUnknown) {
			http.Error(w, "unknown order", http.StatusNotFound)
			return
		}
		a.logger.Error("apply payment notification failed",
			zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if changed {
		a.tellPaymentOutcome(r.Context(), order.AccountID, order.Status)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
