package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

func TestAskCmd_OneShot(t *testing.T) {
	mock, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "", "ask", "Onde nasceu Clarice Lispector?")
	require.NoError(t, err)

	assert.Equal(t, []string{"Onde nasceu Clarice Lispector?"}, mock.answers.questions)
	assert.Contains(t, out, "Resposta: Chechelnyk, na Ucrânia.")
	assert.Contains(t, out, "- Clarice Lispector > Biografia")
}

func TestAskCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "", "ask", "--json", "Onde?")
	require.NoError(t, err)

	var answer driving.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &answer))
	assert.Equal(t, "Onde?", answer.Question)
	assert.False(t, answer.Failed)
}

func TestAskCmd_InteractiveStopsOnExitWord(t *testing.T) {
	mock, cleanup := setupTestServices()
	defer cleanup()

	stdin := "Onde nasceu Clarice?\n\nQuantos romances?\nSAIR\nnunca perguntada\n"
	out, err := runCommand(t, stdin, "ask")
	require.NoError(t, err)

	assert.Equal(t, []string{"Onde nasceu Clarice?", "Quantos romances?"}, mock.answers.questions)
	assert.Contains(t, out, "Type 'sair' to leave.")
}

func TestAskCmd_InteractiveEndsAtEOF(t *testing.T) {
	mock, cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "uma pergunta", "ask")
	require.NoError(t, err)
	assert.Equal(t, []string{"uma pergunta"}, mock.answers.questions)
}

func TestAskCmd_InteractiveKeepsGoingAfterError(t *testing.T) {
	mock, cleanup := setupTestServices()
	defer cleanup()
	mock.answers.err = errors.New("boom")

	out, err := runCommand(t, "a\nb\nsair\n", "ask")
	require.NoError(t, err)
	assert.Len(t, mock.answers.questions, 2)
	assert.Contains(t, out, "boom")
}

func TestAskCmd_OneShotError(t *testing.T) {
	mock, cleanup := setupTestServices()
	defer cleanup()
	mock.answers.err = errors.New("boom")

	_, err := runCommand(t, "", "ask", "pergunta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ask failed")
}
