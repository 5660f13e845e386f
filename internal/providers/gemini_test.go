package providers

import (
	"testing"

	"google.golang.org/genai"
)

func TestCollectText_ConcatenatesParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: "You may qualify "}, {Text: "for VA housing programs."}},
			},
		}},
	}
	if got := collectText(resp); got != "You may qualify for VA housing programs." {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestCollectText_Empty(t *testing.T) {
	if collectText(nil) != "" {
		t.Error("nil response should yield empty text")
	}
	if collectText(&genai.GenerateContentResponse{}) != "" {
		t.Error("no candidates should yield empty text")
	}
	if collectText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}) != "" {
		t.Error("candidate without content should yield empty text")
	}
}
