package simulation

import (
	"fmt"
	"math"

	"vivenda-backend/internal/domain"
)

// Input for a projection: starting investment, horizon in months, an optional
// recurring monthly contribution and the annual ROI percentage. Zero or
// negative ROI is allowed (negative-return simulation).
type Input struct {
	InitialAmount       float64 `json:"initial_amount"`
	PeriodMonths        int     `json:"period_months"`
	MonthlyContribution float64 `json:"monthly_contribution"`
	AnnualROIPercent    float64 `json:"annual_roi_percent"`
}

// Result of a projection. PaybackMonths is meaningful only when
// PaybackAchievable is true; with a non-positive monthly return the payback
// period does not exist and must not be reported as a number.
type Result struct {
	TotalInvestment   float64 `json:"total_investment"`
	FinalValue        float64 `json:"final_value"`
	TotalReturn       float64 `json:"total_return"`
	MonthlyReturn     float64 `json:"monthly_return"`
	AnnualReturn      float64 `json:"annual_return"`
	PaybackMonths     float64 `json:"payback_months"`
	PaybackAchievable bool    `json:"payback_achievable"`
}

// Project computes compound monthly growth over the period. Pure and
// deterministic; the only failure is a non-positive period.
func Project(in Input) (Result, error) {
	if in.PeriodMonths <= 0 {
		return Result{}, fmt.Errorf("%w: period_months must be positive", domain.ErrInvalidArgument)
	}
	if in.InitialAmount < 0 || in.MonthlyContribution < 0 {
		return Result{}, fmt.Errorf("%w: amounts must not be negative", domain.ErrInvalidArgument)
	}

	monthlyRate := in.AnnualROIPercent / 100 / 12

	value := in.InitialAmount
	for month := 1; month <= in.PeriodMonths; month++ {
		value = value*(1+monthlyRate) + in.MonthlyContribution
	}

	totalInvestment := in.InitialAmount + in.MonthlyContribution*float64(in.PeriodMonths)
	totalReturn := value - totalInvestment
	monthlyReturn := totalReturn / float64(in.PeriodMonths)

	out := Result{
		TotalInvestment: round2(totalInvestment),
		FinalValue:      round2(value),
		TotalReturn:     round2(totalReturn),
		MonthlyReturn:   round2(monthlyReturn),
		AnnualReturn:    round2(monthlyReturn * 12),
	}
	if monthlyReturn > 0 {
		out.PaybackAchievable = true
		out.PaybackMonths = round2(totalInvestment / monthlyReturn)
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
