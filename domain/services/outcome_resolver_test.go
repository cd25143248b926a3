package services

import (
	"bytes"
	"math/rand"
	"testing"

	"wingo/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exposureOf(green, red, violet int64) entities.Exposure {
	e := entities.NewExposure()
	e[entities.ColorGreen] = entities.ColorExposure{Count: 1, TotalAmount: decimal.NewFromInt(green)}
	e[entities.ColorRed] = entities.ColorExposure{Count: 1, TotalAmount: decimal.NewFromInt(red)}
	e[entities.ColorViolet] = entities.ColorExposure{Count: 1, TotalAmount: decimal.NewFromInt(violet)}
	return e
}

func TestLowestExposureColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		green  int64
		red    int64
		violet int64
		want   entities.Color
	}{
		{"green least staked", 50, 100, 200, entities.ColorGreen},
		{"red least staked", 300, 10, 200, entities.ColorRed},
		{"violet least staked", 300, 200, 0, entities.ColorViolet},
		{"green and red tie", 100, 100, 300, entities.ColorRed},
		{"green and violet tie", 100, 300, 100, entities.ColorGreen},
		{"red and violet tie", 300, 100, 100, entities.ColorRed},
		{"empty round", 0, 0, 0, entities.ColorRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, LowestExposureColor(exposureOf(tt.green, tt.red, tt.violet)))
		})
	}
}

func TestOutcomeResolver_Resolve(t *testing.T) {
	t.Parallel()

	// 0x07 is below 10 after masking, so the draw is 7 on the first read
	resolver := NewOutcomeResolver(bytes.NewReader([]byte{0x07}))

	outcome, err := resolver.Resolve(exposureOf(50, 100, 200))
	require.NoError(t, err)

	assert.Equal(t, entities.ColorGreen, outcome.WinningColor)
	assert.Equal(t, 7, outcome.WinningNumber)
	assert.True(t, outcome.TotalStaked.Equal(decimal.NewFromInt(350)))
	assert.True(t, outcome.AdminCommission.Equal(decimal.NewFromInt(1)))
}

func TestOutcomeResolver_ResolveUsesCryptoRandByDefault(t *testing.T) {
	t.Parallel()

	resolver := NewOutcomeResolver(nil)
	for i := 0; i < 100; i++ {
		outcome, err := resolver.Resolve(entities.NewExposure())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, outcome.WinningNumber, 0)
		assert.LessOrEqual(t, outcome.WinningNumber, 9)
	}
}

func TestOutcomeResolver_ResolveFailsOnExhaustedRandomness(t *testing.T) {
	t.Parallel()

	resolver := NewOutcomeResolver(bytes.NewReader(nil))
	_, err := resolver.Resolve(entities.NewExposure())
	assert.Error(t, err)
}

func TestAdminCommission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total string
		want  int64
	}{
		{"0", 1},
		{"999.99", 1},
		{"2500", 2},
		{"9999", 9},
		{"10000", 10},
		{"250000", 10},
	}

	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			t.Parallel()
			got := AdminCommission(decimal.RequireFromString(tt.total))
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s", got)
		})
	}
}

func TestHouseNet_PayoutCorrectness(t *testing.T) {
	t.Parallel()

	exposure := exposureOf(50, 100, 200)
	winner := LowestExposureColor(exposure)

	require.Equal(t, entities.ColorGreen, winner)
	// Green pays 2 x 50, the house keeps 350 - 100
	assert.True(t, HouseNet(exposure, winner).Equal(decimal.NewFromInt(250)))
}

func TestHouseNet_NeverBelowOneThirdOfStakes(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	three := decimal.NewFromInt(3)

	for i := 0; i < 5000; i++ {
		exposure := exposureOf(rng.Int63n(100000), rng.Int63n(100000), rng.Int63n(100000))
		// Concentrate everything on one or two colors now and then
		switch i % 4 {
		case 1:
			exposure[entities.ColorGreen] = entities.ColorExposure{TotalAmount: decimal.Zero}
		case 2:
			exposure[entities.ColorRed] = entities.ColorExposure{TotalAmount: exposure[entities.ColorViolet].TotalAmount}
		}

		winner := LowestExposureColor(exposure)
		net := HouseNet(exposure, winner)
		floor := exposure.Total().Div(three)

		require.True(t, net.GreaterThanOrEqual(floor), "exposure %v: house net %s below %s", exposure, net, floor)
		require.False(t, net.IsNegative())
	}
}
