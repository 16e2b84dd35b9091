package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceguard/invoiceguard/constants"
	"github.com/invoiceguard/invoiceguard/internal/extract"
	"github.com/invoiceguard/invoiceguard/internal/llm"
)

// stubExtractor returns canned text for any path.
type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(_ context.Context, _ string) (extract.TextExtractionResult, error) {
	if s.err != nil {
		return extract.TextExtractionResult{}, s.err
	}
	return extract.TextExtractionResult{Text: s.text, Method: "stub", Pages: 1}, nil
}

// scriptedClient replays responses in call order. Field extraction consumes
// one response per attempt; anomaly detection consumes the next.
type scriptedClient struct {
	steps []scriptStep
	calls int
}

type scriptStep struct {
	resp string
	err  error
}

func (c *scriptedClient) Complete(_ context.Context, _ llm.CompletionRequest) (string, error) {
	if c.calls >= len(c.steps) {
		return "", errors.New("no scripted response left")
	}
	step := c.steps[c.calls]
	c.calls++
	return step.resp, step.err
}

const goodExtraction = `{
	"vendor_name": "Acme Corp",
	"invoice_number": "INV-001",
	"invoice_date": "2024-03-15",
	"line_items": [
		{"description": "Widget", "quantity": 2, "unit_price": 50.0, "total": 100.0}
	],
	"subtotal": 100.0,
	"tax_amount": 10.0,
	"total_amount": 110.0,
	"confidence_score": 0.9
}`

const missingTotalExtraction = `{
	"vendor_name": "Acme Corp",
	"invoice_number": "INV-001",
	"invoice_date": "2024-03-15",
	"line_items": [],
	"subtotal": 100.0,
	"tax_amount": 10.0,
	"total_amount": null,
	"confidence_score": 0.9
}`

const cleanAnomalies = `{"anomalies": [], "risk_score": 0.0, "risk_level": "low"}`

func newTestPipeline(t *testing.T, text extract.TextExtractor, client llm.Client) *Pipeline {
	t.Helper()
	p, err := New(Config{}, text, client, slog.Default())
	require.NoError(t, err)
	return p
}

func TestProcess_CleanInvoiceCompletes(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{resp: goodExtraction},
		{resp: cleanAnomalies},
	}}
	p := newTestPipeline(t, stubExtractor{text: "INVOICE INV-001\nAcme Corp\nTotal: $110.00"}, client)

	rec := p.Process(context.Background(), "/tmp/inv.pdf", nil, false, "")

	assert.Equal(t, constants.StatusCompleted, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
	assert.Empty(t, rec.ValidationErrors)
	assert.Empty(t, rec.AnomalyFlags)
	assert.Equal(t, "Acme Corp", rec.VendorName)
	assert.Equal(t, "INV-001", rec.InvoiceNumber)
	require.NotNil(t, rec.TotalAmount)
	assert.InDelta(t, 110.0, *rec.TotalAmount, 0.001)
	assert.Equal(t, 2, client.calls)
}

func TestProcess_EmptyTextFailsWithoutRetry(t *testing.T) {
	client := &scriptedClient{}
	p := newTestPipeline(t, stubExtractor{text: "   \n\t"}, client)

	rec := p.Process(context.Background(), "/tmp/blank.pdf", nil, false, "")

	assert.Equal(t, constants.StatusFailed, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
	assert.Equal(t, []string{"No text could be extracted from file"}, rec.ValidationErrors)
	assert.Zero(t, client.calls, "LLM must not be called when extraction yields no text")
}

func TestProcess_ExtractorErrorFailsWithoutRetry(t *testing.T) {
	client := &scriptedClient{}
	p := newTestPipeline(t, stubExtractor{err: errors.New("tesseract exploded")}, client)

	rec := p.Process(context.Background(), "/tmp/bad.pdf", nil, false, "")

	assert.Equal(t, constants.StatusFailed, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
	require.Len(t, rec.ValidationErrors, 1)
	assert.Contains(t, rec.ValidationErrors[0], "Text extraction failed")
}

func TestProcess_PersistentValidationFailureExhaustsRetries(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{resp: missingTotalExtraction},
		{resp: missingTotalExtraction},
		{resp: missingTotalExtraction},
	}}
	p := newTestPipeline(t, stubExtractor{text: "some invoice text"}, client)

	rec := p.Process(context.Background(), "/tmp/inv.pdf", nil, false, "")

	assert.Equal(t, constants.StatusFailed, rec.Status)
	assert.Equal(t, 2, rec.RetryCount)
	assert.Equal(t, 3, client.calls, "initial attempt plus two retries")
	assert.Contains(t, rec.ValidationErrors, "Missing total amount")
}

func TestProcess_TotalMismatchEmitsError(t *testing.T) {
	const mismatched = `{
		"vendor_name": "Acme Corp",
		"invoice_number": "INV-001",
		"invoice_date": "2024-03-15",
		"line_items": [],
		"subtotal": 100.0,
		"tax_amount": 10.0,
		"total_amount": 109.50,
		"confidence_score": 0.9
	}`
	client := &scriptedClient{steps: []scriptStep{
		{resp: mismatched},
		{resp: mismatched},
		{resp: mismatched},
	}}
	p := newTestPipeline(t, stubExtractor{text: "some invoice text"}, client)

	rec := p.Process(context.Background(), "/tmp/inv.pdf", nil, false, "")

	assert.Equal(t, constants.StatusFailed, rec.Status)
	require.NotEmpty(t, rec.ValidationErrors)
	assert.Contains(t, rec.ValidationErrors[0], "Total mismatch")
	assert.Contains(t, rec.ValidationErrors[0], "110")
	assert.Contains(t, rec.ValidationErrors[0], "109.5")
}

func TestProcess_RecoversOnRetry(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{resp: missingTotalExtraction},
		{resp: goodExtraction},
		{resp: cleanAnomalies},
	}}
	p := newTestPipeline(t, stubExtractor{text: "some invoice text"}, client)

	rec := p.Process(context.Background(), "/tmp/inv.pdf", nil, false, "")

	assert.Equal(t, constants.StatusCompleted, rec.Status)
	assert.Equal(t, 1, rec.RetryCount)
	assert.Empty(t, rec.ValidationErrors)
}

func TestProcess_AnomaliesFlagRecord(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{resp: goodExtraction},
		{resp: `{"anomalies": ["Suspiciously round total"], "risk_score": 0.7, "risk_level": "high"}`},
	}}
	p := newTestPipeline(t, stubExtractor{text: "some invoice text"}, client)

	rec := p.Process(context.Background(), "/tmp/inv.pdf", nil, false, "")

	assert.Equal(t, constants.StatusAnomalyFlagged, rec.Status)
	assert.Equal(t, []string{"Suspiciously round total"}, rec.AnomalyFlags)
}

func TestProcess_AnomalyDetectionErrorCompletesClean(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{resp: goodExtraction},
		{err: errors.New("ollama unreachable")},
	}}
	p := newTestPipeline(t, stubExtractor{text: "some invoice text"}, client)

	rec := p.Process(context.Background(), "/tmp/inv.pdf", nil, false, "")

	assert.Equal(t, constants.StatusCompleted, rec.Status)
	assert.NotNil(t, rec.AnomalyFlags)
	assert.Empty(t, rec.AnomalyFlags)
}

func TestProcess_WhitelistFiltersVendorAnomaliesOnly(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{resp: goodExtraction},
		{resp: `{"anomalies": ["Vendor name looks suspicious", "Duplicate invoice number"], "risk_score": 0.6, "risk_level": "medium"}`},
	}}
	p := newTestPipeline(t, stubExtractor{text: "some invoice text"}, client)

	rec := p.Process(context.Background(), "/tmp/inv.pdf", []string{" ACME "}, false, "")

	assert.Equal(t, constants.StatusAnomalyFlagged, rec.Status)
	assert.Equal(t, []string{"Duplicate invoice number"}, rec.AnomalyFlags)
}

func TestProcess_TaxExemptSkipsMissingTaxError(t *testing.T) {
	const noTax = `{
		"vendor_name": "Acme Corp",
		"invoice_number": "INV-001",
		"invoice_date": "2024-03-15",
		"line_items": [],
		"subtotal": null,
		"tax_amount": null,
		"total_amount": 110.0,
		"confidence_score": 0.9
	}`
	client := &scriptedClient{steps: []scriptStep{
		{resp: noTax},
		{resp: cleanAnomalies},
	}}
	p := newTestPipeline(t, stubExtractor{text: "some invoice text"}, client)

	rec := p.Process(context.Background(), "/tmp/inv.pdf", nil, true, "non-profit")

	assert.Equal(t, constants.StatusCompleted, rec.Status)
	assert.Empty(t, rec.ValidationErrors)
}

func TestDecide(t *testing.T) {
	rec := newRecord(t)

	rec.ValidationErrors = nil
	assert.Equal(t, DecisionProceed, Decide(rec, 2))

	rec.ValidationErrors = []string{"Missing vendor name"}
	rec.RetryCount = 0
	assert.Equal(t, DecisionRetry, Decide(rec, 2))

	rec.RetryCount = 2
	assert.Equal(t, DecisionFail, Decide(rec, 2))

	rec.Status = constants.StatusFailed
	rec.ValidationErrors = nil
	assert.Equal(t, DecisionFail, Decide(rec, 2))
}
