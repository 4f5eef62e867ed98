package bedrock

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"
)

type fakeRuntime struct {
	input *bedrockruntime.InvokeModelInput
	body  string
}

func (f *fakeRuntime) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestGeneratePayloads(t *testing.T) {
	cases := []struct {
		modelID  string
		body     string
		field    string
		wantText string
	}{
		{"anthropic.claude-v2", `{"completion":"{\"threat_level\":\"safe\"}"}`, "max_tokens_to_sample", `{"threat_level":"safe"}`},
		{"amazon.titan-text-express-v1", `{"results":[{"outputText":"titan says"}]}`, "textGenerationConfig", "titan says"},
		{"meta.llama3-8b-instruct-v1:0", `{"text":"llama says"}`, "max_tokens", "llama says"},
		{"mistral.unknown", `{"unexpected":true}`, "max_tokens", `{"unexpected":true}`},
	}

	for _, tc := range cases {
		t.Run(tc.modelID, func(t *testing.T) {
			rt := &fakeRuntime{body: tc.body}
			c := NewBedrockClient(rt, tc.modelID, 500, 0.1, 0.9, zap.NewNop())

			got, err := c.Generate(context.Background(), "SYSTEM", "PROMPT")
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got != tc.wantText {
				t.Errorf("Generate(): got %q, want %q", got, tc.wantText)
			}

			var payload map[string]interface{}
			if err := json.Unmarshal(rt.input.Body, &payload); err != nil {
				t.Fatalf("payload is not JSON: %v", err)
			}
			if _, ok := payload[tc.field]; !ok {
				t.Errorf("payload missing %q: %s", tc.field, rt.input.Body)
			}
			if !strings.Contains(string(rt.input.Body), "SYSTEM") || !strings.Contains(string(rt.input.Body), "PROMPT") {
				t.Errorf("payload does not carry system and prompt: %s", rt.input.Body)
			}
			if *rt.input.ModelId != tc.modelID {
				t.Errorf("ModelId: got %q, want %q", *rt.input.ModelId, tc.modelID)
			}
		})
	}
}

func TestGenerateEmptyTitan(t *testing.T) {
	c := NewBedrockClient(&fakeRuntime{body: `{"results":[]}`}, "amazon.titan-text-lite-v1", 100, 0, 0, zap.NewNop())
	if _, err := c.Generate(context.Background(), "s", "p"); err == nil {
		t.Errorf("Generate() with empty Titan results: got nil error")
	}
}
