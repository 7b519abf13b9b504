package simulation

import (
	"testing"

	"vivenda-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_TwelvePercentOverOneYear(t *testing.T) {
	res, err := Project(Input{
		InitialAmount:    50000,
		PeriodMonths:     12,
		AnnualROIPercent: 12,
	})
	require.NoError(t, err)

	// 50000 * 1.01^12
	assert.InDelta(t, 56341.25, res.FinalValue, 0.5)
	assert.Equal(t, 50000.0, res.TotalInvestment)
	assert.InDelta(t, 6341.25, res.TotalReturn, 0.5)
	assert.InDelta(t, res.TotalReturn/12, res.MonthlyReturn, 0.01)
	assert.InDelta(t, res.MonthlyReturn*12, res.AnnualReturn, 0.01)
	assert.True(t, res.PaybackAchievable)
	assert.InDelta(t, res.TotalInvestment/res.MonthlyReturn, res.PaybackMonths, 0.01)
}

func TestProject_MonthlyContribution(t *testing.T) {
	res, err := Project(Input{
		InitialAmount:       10000,
		PeriodMonths:        6,
		MonthlyContribution: 500,
		AnnualROIPercent:    12,
	})
	require.NoError(t, err)

	assert.Equal(t, 13000.0, res.TotalInvestment)
	// 10000*1.01^6 + 500*(1.01^5 + ... + 1.01^0)
	assert.InDelta(t, 13691.21, res.FinalValue, 0.5)
	assert.Greater(t, res.TotalReturn, 0.0)
}

func TestProject_ZeroROI_PaybackNotAchievable(t *testing.T) {
	res, err := Project(Input{
		InitialAmount:    50000,
		PeriodMonths:     12,
		AnnualROIPercent: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 50000.0, res.FinalValue)
	assert.Equal(t, 0.0, res.TotalReturn)
	assert.False(t, res.PaybackAchievable)
	assert.Equal(t, 0.0, res.PaybackMonths)
}

func TestProject_NegativeROI_PaybackNotAchievable(t *testing.T) {
	res, err := Project(Input{
		InitialAmount:    50000,
		PeriodMonths:     12,
		AnnualROIPercent: -6,
	})
	require.NoError(t, err)

	assert.Less(t, res.FinalValue, 50000.0)
	assert.Less(t, res.TotalReturn, 0.0)
	assert.False(t, res.PaybackAchievable)
}

func TestProject_InvalidPeriod(t *testing.T) {
	_, err := Project(Input{InitialAmount: 1000, PeriodMonths: 0, AnnualROIPercent: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = Project(Input{InitialAmount: 1000, PeriodMonths: -3, AnnualROIPercent: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestProject_NegativeAmounts(t *testing.T) {
	_, err := Project(Input{InitialAmount: -1, PeriodMonths: 12})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = Project(Input{InitialAmount: 100, MonthlyContribution: -5, PeriodMonths: 12})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestProject_Deterministic(t *testing.T) {
	in := Input{InitialAmount: 2500, PeriodMonths: 36, MonthlyContribution: 100, AnnualROIPercent: 9.5}
	a, err := Project(in)
	require.NoError(t, err)
	b, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
