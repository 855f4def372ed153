package botkernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazecore/wazecore/pkg/apierr"
)

func TestConfigSchema_Validate_FillsDefaults(t *testing.T) {
	schema := TranslationBot{}.Info().ConfigSchema
	resolved, err := schema.Validate(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "[ai]", resolved["prefix"])
	assert.Equal(t, false, resolved["translate_images"])
}

func TestConfigSchema_Validate_RejectsUnknownKey(t *testing.T) {
	schema := TranslationBot{}.Info().ConfigSchema
	_, err := schema.Validate(map[string]any{"not_a_real_key": "x"})
	require.Error(t, err)
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.BadConfig, apiErr.Kind)
}

func TestConfigSchema_Validate_RejectsBadEnumListItem(t *testing.T) {
	schema := TranslationBot{}.Info().ConfigSchema
	_, err := schema.Validate(map[string]any{"source_languages": []any{"en", "fr"}})
	require.Error(t, err)
}

func TestConfigSchema_Validate_AcceptsValidListItems(t *testing.T) {
	schema := TranslationBot{}.Info().ConfigSchema
	resolved, err := schema.Validate(map[string]any{"source_languages": []any{"en", "pt"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "pt"}, resolved["source_languages"])
}

func TestRegistry_GetUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("does-not-exist")
	require.Error(t, err)
}

func TestRegistry_RegisterAndList(t *testing.T) {
	r := NewRegistry()
	r.Register(TranslationBot{})
	r.Register(JokeBot{})

	got, err := r.Get("joke")
	require.NoError(t, err)
	assert.Equal(t, "joke", got.Info().TypeKey)
	assert.Len(t, r.List(), 2)
}
