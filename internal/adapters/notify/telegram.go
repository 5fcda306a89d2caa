package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phenrril/prostore/internal/domain"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier alerts the shop's chats about paid orders.
type TelegramNotifier struct {
	baseURL string
	token   string
	chatIDs []string
	client  *http.Client
}

// NewTelegramNotifier accepts a comma separated list of chat ids.
func NewTelegramNotifier(token, rawIDs string) *TelegramNotifier {
	ids := []string{}
	for _, part := range strings.Split(rawIDs, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return &TelegramNotifier{baseURL: telegramAPI, token: token, chatIDs: ids, client: &http.Client{Timeout: 10 * time.Second}}
}

func (n *TelegramNotifier) PurchaseReceipt(ctx context.Context, o *domain.Order) error {
	if n.token == "" || len(n.chatIDs) == 0 {
		return errors.New("telegram: bot token or chat ids missing")
	}
	text := alertText(o)
	apiURL := n.baseURL + "/bot" + n.token + "/sendMessage"
	var lastErr error
	for _, id := range n.chatIDs {
		form := url.Values{}
		form.Set("chat_id", id)
		form.Set("text", text)
		form.Set("disable_web_page_preview", "1")
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := n.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		func() {
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				body, _ := io.ReadAll(resp.Body)
				lastErr = fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
			}
		}()
	}
	return lastErr
}

func alertText(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s - PAID\n", o.ID)
	if o.User != nil {
		fmt.Fprintf(&b, "Buyer: %s <%s>\n", o.User.Name, o.User.Email)
	}
	fmt.Fprintf(&b, "Method: %s\nItems:\n", o.PaymentMethod)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d $%s\n", it.Name, it.Qty, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: $%s (Shipping: $%s)\n", o.TotalPrice.StringFixed(2), o.ShippingPrice.StringFixed(2))
	return b.String()
}
