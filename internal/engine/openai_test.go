package engine

import (
	"encoding/json"
	"math"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestShapeOpenAIResponseEmpty(t *testing.T) {
	if results := shapeOpenAIResponse(openai.AudioResponse{}); results != nil {
		t.Errorf("empty response should produce no results, got %v", results)
	}
}

func TestShapeOpenAIResponseTextOnly(t *testing.T) {
	var resp openai.AudioResponse
	if err := json.Unmarshal([]byte(`{"text":"hello world"}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	results := shapeOpenAIResponse(resp)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Text != "hello world" || !results[0].IsFinal {
		t.Errorf("result = %+v", results[0])
	}
	if results[0].Runs[0].Start != nil {
		t.Errorf("text-only response should have no timing")
	}
}

func TestShapeOpenAIResponseSegments(t *testing.T) {
	payload := `{
		"text": "hello world",
		"segments": [
			{"start": 0, "end": 1.5, "text": " hello", "avg_logprob": -0.5},
			{"start": 1.5, "end": 3.0, "text": " world", "avg_logprob": 0.5}
		]
	}`
	var resp openai.AudioResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	results := shapeOpenAIResponse(resp)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	first := results[0]
	if first.Text != " hello" || !first.IsFinal {
		t.Errorf("first = %+v", first)
	}
	run := first.Runs[0]
	if run.Start == nil || *run.Start != 0 {
		t.Errorf("Start = %v, want 0", run.Start)
	}
	if run.Duration == nil || !approxEqual(*run.Duration, 1.5) {
		t.Errorf("Duration = %v, want 1.5", run.Duration)
	}
	// confidence is exp(avg_logprob)
	if run.Confidence == nil || !approxEqual(*run.Confidence, math.Exp(-0.5)) {
		t.Errorf("Confidence = %v, want exp(-0.5)", run.Confidence)
	}

	// positive logprob would exceed 1; it must clamp
	second := results[1].Runs[0]
	if second.Confidence == nil || *second.Confidence != 1 {
		t.Errorf("Confidence = %v, want clamped to 1", second.Confidence)
	}
}

func TestOpenAIBestAudioFormat(t *testing.T) {
	eng := NewOpenAI(Config{Locale: "en-US", APIKey: "sk-test"})
	format, ok := eng.BestAudioFormat()
	if !ok || format.SampleRate != 16000 || format.Channels != 1 {
		t.Errorf("format = %+v, ok = %v", format, ok)
	}
}

func TestOpenAISupportedEqualsInstalled(t *testing.T) {
	eng := NewOpenAI(Config{Locale: "en-US", APIKey: "sk-test"})

	supported, err := eng.SupportedLocales(t.Context())
	if err != nil {
		t.Fatalf("SupportedLocales() error = %v", err)
	}
	installed, err := eng.InstalledLocales(t.Context())
	if err != nil {
		t.Fatalf("InstalledLocales() error = %v", err)
	}
	// a cloud engine has nothing to install, so the sets coincide
	if len(supported) != len(installed) {
		t.Errorf("supported %d locales, installed %d", len(supported), len(installed))
	}

	if _, err := eng.RequestInstall(t.Context(), "en-US"); err == nil {
		t.Errorf("RequestInstall() should fail for a cloud engine")
	}
}
