package billing

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bizbroker/bizbroker-api/internal/pkg/payhook"
)

type fakeApplier struct {
	result Result
	err    error
	calls  int
}

func (f *fakeApplier) Apply(ctx context.Context, ev *payhook.Event) (Result, error) {
	f.calls++
	return f.result, f.err
}

const testSecret = "whsec_test"

func postWebhook(t *testing.T, h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/billing", bytes.NewReader(body))
	req.Header.Set(payhook.SignatureHeader, signature)
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func TestWebhookSignatureRequired(t *testing.T) {
	applier := &fakeApplier{result: ResultApplied}
	h := NewHandler(applier, testSecret)

	body := []byte(`{"event_id":"evt_1","type":"payment.succeeded","account_id":"a","credit_amount":5}`)

	rec := postWebhook(t, h, body, "deadbeef")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad signature: status = %d, want 401", rec.Code)
	}

	rec = postWebhook(t, h, body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing signature: status = %d, want 401", rec.Code)
	}

	if applier.calls != 0 {
		t.Errorf("applier called %d times before signature check", applier.calls)
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	h := NewHandler(&fakeApplier{}, testSecret)

	body := []byte(`{"event_id":`)
	rec := postWebhook(t, h, body, payhook.Sign(body, testSecret))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}

	body = []byte(`{"type":"payment.succeeded","account_id":"a"}`)
	rec = postWebhook(t, h, body, payhook.Sign(body, testSecret))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing event_id: status = %d, want 400", rec.Code)
	}
}

func TestWebhookAcknowledgesApplyOutcomes(t *testing.T) {
	body := []byte(`{"event_id":"evt_1","type":"payment.succeeded","account_id":"11111111-1111-1111-1111-111111111111","credit_amount":5}`)
	sig := payhook.Sign(body, testSecret)

	for _, applier := range []*fakeApplier{
		{result: ResultApplied},
		{result: ResultDuplicate},
		{result: ResultRejected, err: ErrEventRejected},
	} {
		h := NewHandler(applier, testSecret)
		rec := postWebhook(t, h, body, sig)
		if rec.Code != http.StatusOK {
			t.Errorf("result %q: status = %d, want 200", applier.result, rec.Code)
		}
		if applier.calls != 1 {
			t.Errorf("result %q: applier called %d times", applier.result, applier.calls)
		}
	}
}
