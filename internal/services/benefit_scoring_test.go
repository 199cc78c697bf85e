package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/lens-advisor/api/internal/domain"
)

func benefitFixtures() []Benefit {
	return []Benefit{
		{Code: "B01", Name: "Blue light", PointWeight: 1},
		{Code: "B02", Name: "Anti glare", PointWeight: 2},
		{Code: "B03", Name: "Thin", MaxScore: 2},
	}
}

func TestComputeBenefitScores(t *testing.T) {
	mappings := []AnswerBenefitMapping{
		{AnswerID: "screen-high", BenefitCode: "B01", Points: 5},
		{AnswerID: "screen-high", BenefitCode: "B02", Points: 1.5},
		{AnswerID: "night-drive", BenefitCode: "B02", Points: -2},
		{AnswerID: "night-drive", BenefitCode: "B99", Points: 3},
		{AnswerID: "unselected", BenefitCode: "B03", Points: 3},
	}
	selections := []AnswerSelection{
		{QuestionID: "q1", AnswerIDs: []string{"screen-high"}},
		{QuestionID: "q2", AnswerIDs: []string{"night-drive", "screen-high"}},
	}

	vector := ComputeBenefitScores(selections, mappings, benefitFixtures())

	require.Len(t, vector, 2)
	assert.InDelta(t, 3.0, vector["B01"], 1e-9)
	assert.InDelta(t, 3.0, vector["B02"], 1e-9)
	assert.NotContains(t, vector, "B99")
	assert.NotContains(t, vector, "B03")
}

func TestComputeBenefitScores_EmptySelections(t *testing.T) {
	vector := ComputeBenefitScores(nil, []AnswerBenefitMapping{{AnswerID: "a", BenefitCode: "B01", Points: 2}}, benefitFixtures())
	assert.NotNil(t, vector)
	assert.Empty(t, vector)
}

func TestProductMatchScore_ClampsToBenefitCeiling(t *testing.T) {
	lens := product("lens", domain.VisionSingle, 1000)
	lens.Benefits = []domain.ProductBenefitScore{
		{BenefitCode: "B01", Score: 2},
		{BenefitCode: "B03", Score: 3},
		{BenefitCode: "B02", Score: -1},
	}
	vector := BenefitVector{"B01": 1.5, "B02": 4, "B03": 2}

	score := ProductMatchScore(vector, lens, benefitFixtures())
	assert.InDelta(t, 1.5*2+2*2, score, 1e-9)
}

func TestSelectedAnswerIDs_DeduplicatesInOrder(t *testing.T) {
	ids := SelectedAnswerIDs([]AnswerSelection{
		{AnswerIDs: []string{"b", " a ", ""}},
		{AnswerIDs: []string{"a", "c", "b"}},
	})
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}
