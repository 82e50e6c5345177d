package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/internal/pricing"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
)

type stubPricingService struct {
	quote *pricing.QuoteResult
	err   error

	quoteReq  *pricing.QuoteRequest
	ruleInput *pricing.PricingRuleInput
	rateInput *pricing.InsuranceRateInput
}

func (s *stubPricingService) Quote(ctx context.Context, req pricing.QuoteRequest) (*pricing.QuoteResult, error) {
	s.quoteReq = &req
	return s.quote, s.err
}

func (s *stubPricingService) Price(ctx context.Context, req pricing.QuoteRequest) (*pricing.Breakdown, error) {
	return nil, s.err
}

func (s *stubPricingService) ListPricingRules(ctx context.Context, onlyActive bool) ([]models.PricingRule, error) {
	return nil, s.err
}

func (s *stubPricingService) CreatePricingRule(ctx context.Context, input pricing.PricingRuleInput) (*models.PricingRule, error) {
	s.ruleInput = &input
	return &models.PricingRule{}, s.err
}

func (s *stubPricingService) UpdatePricingRule(ctx context.Context, id uuid.UUID, input pricing.PricingRuleInput) (*models.PricingRule, error) {
	s.ruleInput = &input
	return &models.PricingRule{}, s.err
}

func (s *stubPricingService) SetPricingRuleActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.err
}

func (s *stubPricingService) ListInsuranceRates(ctx context.Context, onlyActive bool) ([]models.InsuranceRate, error) {
	return nil, s.err
}

func (s *stubPricingService) CreateInsuranceRate(ctx context.Context, input pricing.InsuranceRateInput) (*models.InsuranceRate, error) {
	s.rateInput = &input
	return &models.InsuranceRate{}, s.err
}

func (s *stubPricingService) UpdateInsuranceRate(ctx context.Context, id uuid.UUID, input pricing.InsuranceRateInput) (*models.InsuranceRate, error) {
	s.rateInput = &input
	return &models.InsuranceRate{}, s.err
}

func (s *stubPricingService) SetInsuranceRateActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.err
}

func TestQuoteSuccess(t *testing.T) {
	svc := &stubPricingService{quote: &pricing.QuoteResult{
		ServiceType: enums.ServiceTypeRetail,
		TotalCost:   decimal.NewFromInt(315),
	}}
	handler := Quote(svc, nil)

	payload := []byte(`{"weight_kg":"2.5","length_cm":"30","width_cm":"20","height_cm":"10","declared_value":"1500","insured":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.quoteReq == nil {
		t.Fatal("expected quote call")
	}
	if !svc.quoteReq.WeightKg.Equal(decimal.RequireFromString("2.5")) || !svc.quoteReq.Insured {
		t.Fatalf("unexpected quote request %+v", svc.quoteReq)
	}
	var envelope struct {
		Data pricing.QuoteResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.TotalCost.Equal(decimal.NewFromInt(315)) {
		t.Fatalf("unexpected total %s", envelope.Data.TotalCost)
	}
}

func TestQuoteUnpriceable(t *testing.T) {
	svc := &stubPricingService{err: pkgerrors.New(pkgerrors.CodeUnpriceable, "no tariff bracket covers 80kg")}
	handler := Quote(svc, nil)

	payload := []byte(`{"weight_kg":"80","length_cm":"100","width_cm":"100","height_cm":"100"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestQuoteRejectsMissingDimensions(t *testing.T) {
	svc := &stubPricingService{}
	handler := Quote(svc, nil)

	payload := []byte(`{"weight_kg":"2.5"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.quoteReq != nil {
		t.Fatal("service should not be called on invalid body")
	}
}
