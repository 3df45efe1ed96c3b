package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ScoreReport(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErr    bool
		wantFields []string
	}{
		{
			name:  "valid",
			input: `{"global_score": 78, "content_score": 16, "seo_score": 24, "markdown_report": "## Points forts"}`,
		},
		{
			name:       "missing report",
			input:      `{"global_score": 78}`,
			wantErr:    true,
			wantFields: []string{"(root)"},
		},
		{
			name:       "score out of range",
			input:      `{"global_score": 130, "markdown_report": ""}`,
			wantErr:    true,
			wantFields: []string{"global_score"},
		},
		{
			name:       "wrong type",
			input:      `{"global_score": "80", "markdown_report": ""}`,
			wantErr:    true,
			wantFields: []string{"global_score"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(ScoreReport, tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantFields, verr.Fields())
			assert.Contains(t, verr.Error(), "score_report validation failed")
		})
	}
}

func TestValidate_ArticleMetadata(t *testing.T) {
	err := Validate(ArticleMetadata, `{"title": "T", "slug": "agent-vocal-medecin", "blog_post": "<p>x</p>"}`)
	assert.NoError(t, err)

	err = Validate(ArticleMetadata, `{"title": "T", "slug": "Agent Vocal", "blog_post": "<p>x</p>"}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"slug"}, verr.Fields())
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(ScoreReport, `{"global_score": `)
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate(Name("missing"), `{}`)
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "unknown schema")
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "Donna"}`))

	err := ValidateJSONString(schema, `{}`)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 1)

	err = ValidateJSONString(`{"type": 12}`, `{}`)
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}
