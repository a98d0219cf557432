package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChatModel implements model.BaseChatModel and records the last call.
type mockChatModel struct {
	response *schema.Message
	err      error
	input    []*schema.Message
	options  *model.Options
}

func (m *mockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.input = input
	m.options = model.GetCommonOptions(&model.Options{}, opts...)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func TestEinoChat_Complete(t *testing.T) {
	m := &mockChatModel{response: schema.AssistantMessage("Delivery is on track.", nil)}
	chat := NewEinoChat(m)

	resp, err := chat.Complete(context.Background(), Request{
		SystemInstruction: "be brief",
		UserMessage:       `{"riskLevel":"low"}`,
		MaxTokens:         200,
		Temperature:       0.7,
	})

	require.NoError(t, err)
	assert.Equal(t, "Delivery is on track.", resp.Text)
	require.Len(t, m.input, 2)
	assert.Equal(t, schema.System, m.input[0].Role)
	assert.Equal(t, schema.User, m.input[1].Role)
	assert.Equal(t, `{"riskLevel":"low"}`, m.input[1].Content)
	require.NotNil(t, m.options.MaxTokens)
	assert.Equal(t, 200, *m.options.MaxTokens)
	require.NotNil(t, m.options.Temperature)
	assert.InDelta(t, 0.7, *m.options.Temperature, 1e-6)
}

func TestEinoChat_CompleteWithoutSystemInstruction(t *testing.T) {
	m := &mockChatModel{response: schema.AssistantMessage("ok", nil)}

	_, err := NewEinoChat(m).Complete(context.Background(), Request{UserMessage: "hi"})

	require.NoError(t, err)
	require.Len(t, m.input, 1)
	assert.Equal(t, schema.User, m.input[0].Role)
}

func TestEinoChat_Errors(t *testing.T) {
	_, err := NewEinoChat(&mockChatModel{err: errors.New("503 service unavailable")}).
		Complete(context.Background(), Request{UserMessage: "hi"})
	assert.ErrorContains(t, err, "503")

	_, err = NewEinoChat(&mockChatModel{response: schema.AssistantMessage("  ", nil)}).
		Complete(context.Background(), Request{UserMessage: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), Request{})
	assert.True(t, IsUnavailable(err))
}

func TestNewChatService(t *testing.T) {
	svc, err := NewChatService(context.Background(), Config{Provider: ProviderNone})
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, svc)

	_, err = NewChatService(context.Background(), Config{Provider: ProviderOpenAI})
	assert.ErrorContains(t, err, "API key is required")

	_, err = NewChatService(context.Background(), Config{Provider: "mystery"})
	assert.ErrorContains(t, err, "unsupported LLM provider")
}

func TestDefaultModel(t *testing.T) {
	assert.NotEmpty(t, DefaultModel(ProviderOpenAI))
	assert.Empty(t, DefaultModel(ProviderNone))
}
