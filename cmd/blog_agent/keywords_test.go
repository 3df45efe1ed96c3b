package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordsCommand(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "keywords.json", `{"default": ["agent vocal", "comptabilité", "secrétariat médical", "prise de rendez-vous"]}`)

	setVar(t, &keywordsTopic, "Un agent vocal pour le secrétariat médical")
	setVar(t, &keywordsCatalog, catalog)
	setVar(t, &keywordsMin, 1)
	setVar(t, &keywordsMax, 2)

	cmd, out := newTestCmd()
	require.NoError(t, runKeywords(cmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.ElementsMatch(t, []string{"agent vocal", "secrétariat médical"}, lines)
}

func TestKeywordsCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		catalog string
	}{
		{name: "missing catalog", catalog: filepath.Join(dir, "none.json")},
		{name: "malformed catalog", catalog: writeFile(t, dir, "bad.json", `{"default": 12`)},
		{name: "empty catalog", catalog: writeFile(t, dir, "empty.json", `[]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setVar(t, &keywordsTopic, "agent vocal")
			setVar(t, &keywordsCatalog, tt.catalog)

			cmd, _ := newTestCmd()
			assert.Error(t, runKeywords(cmd, nil))
		})
	}
}
