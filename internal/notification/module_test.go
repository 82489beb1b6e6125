package notification

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"b2b_marketplace_backend/internal/email"
	"b2b_marketplace_backend/internal/events"
	apphttp "b2b_marketplace_backend/internal/http"
	"b2b_marketplace_backend/internal/notification/sse"
	"b2b_marketplace_backend/platform/httpkit"
	"b2b_marketplace_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRecipientsDeduplicatesParties(t *testing.T) {
	buyer, supplier := uuid.New(), uuid.New()

	assert.Equal(t, []uuid.UUID{buyer, supplier}, recipients(events.QuoteRef{BuyerID: buyer, SupplierID: supplier}))
	assert.Equal(t, []uuid.UUID{buyer}, recipients(events.QuoteRef{BuyerID: buyer, SupplierID: buyer}))
	assert.Empty(t, recipients(events.QuoteRef{}))
}

func TestDescribe(t *testing.T) {
	ref := events.QuoteRef{QuoteNumber: "RFQ-2026-000042"}

	assert.Equal(t, "Quote RFQ-2026-000042 converted to order ORD-7",
		describe(events.QuoteConverted{QuoteRef: ref, OrderNumber: "ORD-7"}))
	assert.Equal(t, "New quote request RFQ-2026-000042 with 3 item(s)",
		describe(events.QuoteCreated{QuoteRef: ref, ItemCount: 3}))
	assert.Equal(t, "see attached", describe(events.QuoteMessageAdded{QuoteRef: ref, Preview: "see attached"}))
}

func TestQuoteEventsStreamToBothParties(t *testing.T) {
	buyer, supplier := uuid.New(), uuid.New()
	hub := sse.New(logger.Nop())
	m := New(hub, logger.Nop())

	engine := gin.New()
	protected := engine.Group("/api/v1")
	protected.Use(func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader("X-Test-User"))
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(httpkit.ContextUserIDKey, id)
		c.Next()
	})
	m.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: protected, Protected: protected})

	srv := httptest.NewServer(engine)
	defer srv.Close()

	buyerLines := openStream(t, srv.URL, buyer)
	supplierLines := openStream(t, srv.URL, supplier)

	require.Eventually(t, func() bool {
		return hub.ConnectedClients(buyer) == 1 && hub.ConnectedClients(supplier) == 1
	}, 2*time.Second, 10*time.Millisecond)

	bus := events.NewInMemoryBus(logger.Nop())
	m.RegisterHandlers(bus)
	bus.Publish(context.Background(), events.QuoteApproved{
		BaseEvent:  events.NewBaseEvent(time.Now()),
		QuoteRef:   events.QuoteRef{QuoteNumber: "RFQ-2026-000001", BuyerID: buyer, SupplierID: supplier, Status: "APPROVED"},
		FinalTotal: "81.00",
	})
	bus.Wait()

	for _, lines := range []<-chan string{buyerLines, supplierLines} {
		line := waitFor(t, lines, "event:quotes.approved")
		assert.Equal(t, "event:quotes.approved", line)
		data := waitFor(t, lines, "data:")
		assert.Contains(t, data, `"quoteNumber":"RFQ-2026-000001"`)
		assert.Contains(t, data, "Quote RFQ-2026-000001 approved at 81.00")
	}
}

func TestStreamRequiresIdentity(t *testing.T) {
	hub := sse.New(logger.Nop())
	engine := gin.New()
	engine.GET("/events", hub.Handler(userIDFromContext))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func openStream(t *testing.T, baseURL string, userID uuid.UUID) <-chan string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/events", nil)
	require.NoError(t, err)
	req.Header.Set("X-Test-User", userID.String())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 64)
	go func() {
		defer resp.Body.Close()
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func waitFor(t *testing.T, lines <-chan string, prefix string) string {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed before %q", prefix)
			}
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", prefix)
		}
	}
}

type sentEmail struct {
	to     string
	update email.QuoteUpdate
}

type fakeSender struct {
	sent []sentEmail
}

func (f *fakeSender) SendQuoteUpdate(_ context.Context, to string, update email.QuoteUpdate) error {
	f.sent = append(f.sent, sentEmail{to: to, update: update})
	return nil
}

type fakeContacts map[uuid.UUID]string

func (f fakeContacts) Contact(_ context.Context, id uuid.UUID) (string, string, error) {
	addr, ok := f[id]
	if !ok {
		return "", "", errors.New("unknown party")
	}
	return "Contact " + addr, addr, nil
}

func TestEmailGoesToCounterparty(t *testing.T) {
	buyer, supplier := uuid.New(), uuid.New()
	sender := &fakeSender{}
	m := New(nil, logger.Nop())
	m.SetEmail(sender, fakeContacts{buyer: "buyer@example.com", supplier: "supplier@example.com"}, "https://app.example.com/")

	ref := events.QuoteRef{QuoteNumber: "RFQ-2026-000003", BuyerID: buyer, SupplierID: supplier}

	ref.ActorID = supplier
	require.NoError(t, m.Handle(context.Background(), events.QuoteApproved{QuoteRef: ref, FinalTotal: "81.00"}))
	ref.ActorID = buyer
	require.NoError(t, m.Handle(context.Background(), events.QuoteConverted{QuoteRef: ref, OrderNumber: "ORD-9"}))
	ref.ActorID = uuid.Nil
	require.NoError(t, m.Handle(context.Background(), events.QuoteValidityExpiring{QuoteRef: ref, ValidUntil: "2026-05-01"}))

	require.Len(t, sender.sent, 3)
	assert.Equal(t, "buyer@example.com", sender.sent[0].to)
	assert.Equal(t, "81.00", sender.sent[0].update.Total)
	assert.Equal(t, "https://app.example.com/quotes/RFQ-2026-000003", sender.sent[0].update.CTAURL)
	assert.Equal(t, "Contact buyer@example.com", sender.sent[0].update.RecipientName)
	assert.Equal(t, "supplier@example.com", sender.sent[1].to)
	assert.Contains(t, sender.sent[1].update.Body, "ORD-9")
	assert.Equal(t, "buyer@example.com", sender.sent[2].to)
	assert.Equal(t, "RFQ-2026-000003", sender.sent[2].update.QuoteNumber)
}

func TestEmailSkipsMessagesAndUnknownContacts(t *testing.T) {
	buyer, supplier := uuid.New(), uuid.New()
	sender := &fakeSender{}
	m := New(nil, logger.Nop())
	m.SetEmail(sender, fakeContacts{buyer: "buyer@example.com"}, "")

	ref := events.QuoteRef{QuoteNumber: "RFQ-2026-000004", BuyerID: buyer, SupplierID: supplier, ActorID: supplier}
	require.NoError(t, m.Handle(context.Background(), events.QuoteMessageAdded{QuoteRef: ref, Preview: "hi"}))

	ref.ActorID = buyer
	require.NoError(t, m.Handle(context.Background(), events.QuoteCancelled{QuoteRef: ref}))

	assert.Empty(t, sender.sent)
}
