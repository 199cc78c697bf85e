package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/lens-advisor/api/internal/domain"
)

func TestFindEligibleLenses_UniversalProduct(t *testing.T) {
	universal := product("universal", domain.VisionSingle, 2500)
	universal.AddOnPrice = 300

	result := FindEligibleLenses(testConfig(), []LensProduct{universal}, EligibilityQuery{Prescription: rxBoth(-12, -6)})

	require.Len(t, result.Lenses, 1)
	assert.Equal(t, int64(2800), result.Lenses[0].DynamicFinalPrice)
	assert.Equal(t, int64(300), result.Lenses[0].RxAddOn)
	assert.Nil(t, result.Lenses[0].MatchedRange)
}

func TestFindEligibleLenses_InclusiveBoundaries(t *testing.T) {
	bounded := product("bounded", domain.VisionSingle, 2000, domain.RxRange{SphMin: -4, SphMax: 4, CylMin: 0, CylMax: -2, AddOnPrice: 150})
	cfg := testConfig()

	cases := []struct {
		name     string
		rx       Prescription
		eligible bool
	}{
		{name: "upper sphere bound", rx: rxBoth(4, -2), eligible: true},
		{name: "lower sphere bound", rx: rxBoth(-4, 0), eligible: true},
		{name: "positive cylinder compared by magnitude", rx: rxBoth(1, 2), eligible: true},
		{name: "sphere just outside", rx: rxBoth(4.25, 0), eligible: false},
		{name: "cylinder just outside", rx: rxBoth(0, -2.25), eligible: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := FindEligibleLenses(cfg, []LensProduct{bounded}, EligibilityQuery{Prescription: tc.rx})
			if !tc.eligible {
				assert.Empty(t, result.Lenses)
				return
			}
			require.Len(t, result.Lenses, 1)
			assert.Equal(t, int64(2150), result.Lenses[0].DynamicFinalPrice)
		})
	}
}

func TestFindEligibleLenses_BothEyesMustShareRange(t *testing.T) {
	split := product("split", domain.VisionSingle, 2000,
		domain.RxRange{SphMin: -2, SphMax: 0, CylMin: 0, CylMax: 2},
		domain.RxRange{SphMin: 0.25, SphMax: 4, CylMin: 0, CylMax: 2},
	)
	rx := Prescription{
		Right: domain.EyeRx{Sphere: -1},
		Left:  domain.EyeRx{Sphere: 2},
	}

	result := FindEligibleLenses(testConfig(), []LensProduct{split}, EligibilityQuery{Prescription: rx})
	assert.Empty(t, result.Lenses)
	assert.NotNil(t, result.Lenses)
}

func TestFindEligibleLenses_FirstMatchingRangeWins(t *testing.T) {
	overlapping := product("overlap", domain.VisionSingle, 2000,
		domain.RxRange{SphMin: -6, SphMax: 0, CylMin: 0, CylMax: 2, AddOnPrice: 100},
		domain.RxRange{SphMin: -3, SphMax: 0, CylMin: 0, CylMax: 2, AddOnPrice: 900},
	)

	result := FindEligibleLenses(testConfig(), []LensProduct{overlapping}, EligibilityQuery{Prescription: rxBoth(-2, 0)})
	require.Len(t, result.Lenses, 1)
	assert.Equal(t, int64(2100), result.Lenses[0].DynamicFinalPrice)
	require.NotNil(t, result.Lenses[0].MatchedRange)
	assert.Equal(t, int64(100), result.Lenses[0].MatchedRange.AddOnPrice)
}

func TestFindEligibleLenses_FiltersInactiveAndVisionType(t *testing.T) {
	inactive := product("inactive", domain.VisionSingle, 1000)
	inactive.IsActive = false
	progressive := product("progressive", domain.VisionProgressive, 9000)
	single := product("single", domain.VisionSingle, 1500)
	candidates := []LensProduct{inactive, progressive, single}

	result := FindEligibleLenses(testConfig(), candidates, EligibilityQuery{Prescription: rxBoth(-1, 0)})
	require.Len(t, result.Lenses, 1)
	assert.Equal(t, "single", result.Lenses[0].Product.ID)
	assert.Equal(t, domain.VisionSingle, result.VisionType)

	rx := rxBoth(1, 0)
	rx.Left.Add = floatPtr(1.5)
	result = FindEligibleLenses(testConfig(), candidates, EligibilityQuery{Prescription: rx})
	assert.Equal(t, domain.VisionProgressive, result.VisionType)
	require.Len(t, result.Lenses, 1)
	assert.Equal(t, "progressive", result.Lenses[0].Product.ID)

	result = FindEligibleLenses(testConfig(), candidates, EligibilityQuery{Prescription: rx, VisionType: domain.VisionSingle})
	require.Len(t, result.Lenses, 1)
	assert.Equal(t, "single", result.Lenses[0].Product.ID)
}

func TestResolveVisionType_AddThresholdIsExclusive(t *testing.T) {
	rx := rxBoth(0, 0)
	rx.Right.Add = floatPtr(0.75)
	assert.Equal(t, domain.VisionSingle, ResolveVisionType(testConfig(), rx, ""))

	rx.Right.Add = floatPtr(1)
	assert.Equal(t, domain.VisionProgressive, ResolveVisionType(testConfig(), rx, ""))
}

func TestRecommendIndex(t *testing.T) {
	cfg := testConfig()
	cases := []struct {
		power float64
		frame domain.FrameType
		want  domain.LensIndex
	}{
		{power: 0, frame: domain.FrameFullRim, want: domain.Index156},
		{power: 3, frame: domain.FrameFullRim, want: domain.Index156},
		{power: 3.25, frame: domain.FrameFullRim, want: domain.Index160},
		{power: 5, frame: domain.FrameFullRim, want: domain.Index160},
		{power: 8, frame: domain.FrameFullRim, want: domain.Index167},
		{power: 8.5, frame: domain.FrameFullRim, want: domain.Index174},
		{power: 2, frame: domain.FrameRimless, want: domain.Index156},
		{power: 2.5, frame: domain.FrameRimless, want: domain.Index160},
		{power: 4, frame: domain.FrameHalfRim, want: domain.Index160},
		{power: 4.5, frame: domain.FrameHalfRim, want: domain.Index167},
		{power: 10, frame: domain.FrameRimless, want: domain.Index174},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RecommendIndex(cfg, tc.power, tc.frame), "power %.2f frame %s", tc.power, tc.frame)
	}
}

func TestFindEligibleLenses_UsesCombinedPowerForIndex(t *testing.T) {
	result := FindEligibleLenses(testConfig(), nil, EligibilityQuery{Prescription: rxBoth(-3, -1.5)})
	assert.InDelta(t, 4.5, result.MaxAbsolutePower, 1e-9)
	assert.Equal(t, domain.Index160, result.RecommendedIndex)
	assert.Empty(t, result.Lenses)
}
