package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shipdesk/shipdesk/internal/api/dto"
	"github.com/shipdesk/shipdesk/internal/service"
)

// ShowSetupFee prints the setup fee in force, or at AT (RFC3339) when set
func ShowSetupFee() error {
	var at time.Time
	if raw := os.Getenv("AT"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("AT must be an RFC3339 timestamp: %w", err)
		}
		at = parsed
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	fee, err := service.NewBillingService(rt.params).GetEffectiveSetupFee(context.Background(), at)
	if err != nil {
		return err
	}
	return printJSON(fee)
}

// ShowMonthlyCharges prints the charges of CLIENT_ID for MONTH/YEAR, the current
// month when both are empty. With PLAN_ID set the full monthly bill is printed.
func ShowMonthlyCharges() error {
	clientID := os.Getenv("CLIENT_ID")
	if clientID == "" {
		return fmt.Errorf("CLIENT_ID is required")
	}
	month, err := envInt("MONTH")
	if err != nil {
		return err
	}
	year, err := envInt("YEAR")
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := context.Background()
	billing := service.NewBillingService(rt.params)

	if planID := os.Getenv("PLAN_ID"); planID != "" {
		bill, err := billing.ComputeMonthlyBill(ctx, clientID, planID, month, year)
		if err != nil {
			return err
		}
		return printJSON(bill)
	}

	charges, err := billing.GetMonthlyChargesDetail(ctx, clientID, month, year)
	if err != nil {
		return err
	}
	if !charges.Persisted {
		log.Printf("no charges recorded for %s, showing an empty month", clientID)
	}
	return printJSON(charges)
}

// UpdatePlanRate sets OPERATIONS_RATE and PROMOTIONAL_PRICE of PLAN_ID.
// An empty PROMOTIONAL_PRICE removes the promotion.
func UpdatePlanRate() error {
	planID := os.Getenv("PLAN_ID")
	if planID == "" {
		return fmt.Errorf("PLAN_ID is required")
	}

	req := dto.UpdatePlanRateRequest{
		OperationsRateEur: os.Getenv("OPERATIONS_RATE"),
	}
	if promo := os.Getenv("PROMOTIONAL_PRICE"); promo != "" {
		req.PromotionalPriceEur = &promo
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	updated, err := service.NewPlanService(rt.params).UpdatePlanRate(context.Background(), planID, req)
	if err != nil {
		return err
	}

	log.Printf("✅ updated plan %s", planID)
	return printJSON(updated)
}
