package cmd

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dfornika/irida/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAnswersDefaults(t *testing.T) {
	a := initialInitModel("").answers()
	assert.Equal(t, defaultGalaxyURL, a.GalaxyURL)
	assert.Equal(t, "", a.APIKey)
	assert.Equal(t, ".", a.WorkspaceName)

	assert.Equal(t, "lab", initialInitModel("lab").answers().WorkspaceName)
}

func TestInitModelKeys(t *testing.T) {
	tests := []struct {
		name       string
		keys       []tea.KeyType
		wantFocus  int
		wantCancel bool
		wantDone   bool
	}{
		{name: "Tab moves forward", keys: []tea.KeyType{tea.KeyTab}, wantFocus: 1},
		{name: "Shift+tab wraps to last", keys: []tea.KeyType{tea.KeyShiftTab}, wantFocus: 2},
		{name: "Tab wraps to first", keys: []tea.KeyType{tea.KeyTab, tea.KeyTab, tea.KeyTab}, wantFocus: 0},
		{name: "Esc cancels", keys: []tea.KeyType{tea.KeyEsc}, wantCancel: true, wantDone: true},
		{name: "Enter finishes", keys: []tea.KeyType{tea.KeyEnter}, wantDone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = initialInitModel("")
			for _, k := range tt.keys {
				m, _ = m.Update(tea.KeyMsg{Type: k})
			}
			final := m.(initModel)
			assert.Equal(t, tt.wantFocus, final.focusIdx)
			assert.Equal(t, tt.wantCancel, final.canceled)
			assert.Equal(t, tt.wantDone, final.done)
		})
	}
}

func TestStarterFilesValidate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.DefaultConfigPath)
	manifestPath := filepath.Join(dir, "submission.yml")

	require.NoError(t, writeYAML(cfgPath, starterConfig(initAnswers{GalaxyURL: "http://galaxy", APIKey: "key"})))
	require.NoError(t, writeYAML(manifestPath, starterManifest("lab")))

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "http://galaxy", cfg.Galaxy.URL)

	sub, err := config.LoadManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "lab", sub.Submission.Name)

	err = writeYAML(cfgPath, starterConfig(initAnswers{}))
	assert.ErrorContains(t, err, "already exists")
}

func TestMustNotExist(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, mustNotExist(filepath.Join(dir, "missing")))

	existing := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(existing, nil, 0644))
	assert.Error(t, mustNotExist(existing))
}
