package help

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestQuickstartIsValidYAML(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(QuickstartYAML), &doc))

	for _, section := range []string{"commands", "config", "caching", "exit_codes"} {
		assert.Contains(t, doc, section)
	}
}
