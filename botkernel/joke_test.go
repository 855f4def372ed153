package botkernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJokeBot_EmptyTextReturnsNil(t *testing.T) {
	bot := JokeBot{}
	reply, err := bot.Process(context.Background(), Message{}, Context{Config: map[string]any{"prefix": "[joke]"}})
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestJokeBot_Info(t *testing.T) {
	info := JokeBot{}.Info()
	assert.Equal(t, "joke", info.TypeKey)
	assert.True(t, Has(info.Capabilities, CapText))
	assert.False(t, Has(info.Capabilities, CapImage))
}
