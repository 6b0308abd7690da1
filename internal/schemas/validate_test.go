package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGeneratorResponse_Valid(t *testing.T) {
	doc := `{"variants": [{"text": "We cut sync latency in half.", "what_makes_it_different": "numbers first"}]}`
	assert.NoError(t, ValidateGeneratorResponse(doc))
}

func TestValidateGeneratorResponse_EmptyVariants(t *testing.T) {
	err := ValidateGeneratorResponse(`{"variants": []}`)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateGeneratorResponse_MissingText(t *testing.T) {
	err := ValidateGeneratorResponse(`{"variants": [{"what_makes_it_different": "x"}]}`)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestValidateGeneratorResponse_NotJSON(t *testing.T) {
	err := ValidateGeneratorResponse(`here are your posts:`)
	require.Error(t, err)
}

func TestValidateJudgeResponse_Valid(t *testing.T) {
	doc := `{"scores": [{
		"variant_id": "v1",
		"hook_strength": 8,
		"distinctiveness": 7.5,
		"relevance": 9,
		"persona_fit": 6,
		"rationale": "strong opener"
	}]}`
	assert.NoError(t, ValidateJudgeResponse(doc))
}

func TestValidateJudgeResponse_ScoreOutOfRange(t *testing.T) {
	doc := `{"scores": [{
		"variant_id": "v1",
		"hook_strength": 11,
		"distinctiveness": 7,
		"relevance": 9,
		"persona_fit": 6
	}]}`
	err := ValidateJudgeResponse(doc)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Error(), "hook_strength")
}

func TestValidateJudgeResponse_MissingComponent(t *testing.T) {
	doc := `{"scores": [{"variant_id": "v1", "hook_strength": 5}]}`
	require.Error(t, ValidateJudgeResponse(doc))
}
