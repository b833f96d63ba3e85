package llm

import (
	"testing"
)

func TestParseBrandFoundation(t *testing.T) {
	raw := "```json\n{\"name\": \"Glowly\", \"mission\": \"Glow daily\", \"values\": [\"honesty\"]}\n```"
	foundation, err := ParseBrandFoundation(raw)
	if err != nil {
		t.Fatalf("ParseBrandFoundation failed: %v", err)
	}
	if foundation.Name != "Glowly" || foundation.Mission != "Glow daily" {
		t.Errorf("foundation = %+v", foundation)
	}
}

func TestParseBrandFoundation_RejectsMissingName(t *testing.T) {
	if _, err := ParseBrandFoundation(`{"mission": "x"}`); err == nil {
		t.Error("expected error for foundation without a name")
	}
}

func TestParseMediaPlan_AssignsLocalIDs(t *testing.T) {
	raw := `{
		"name": "Launch",
		"weeks": [
			{"theme": "Week one", "posts": [
				{"platform": "instagram", "title": "Hi", "content": "Hello", "hashtags": ["#a"], "media_prompt": "a sunny park scene"}
			]}
		]
	}`
	plan, err := ParseMediaPlan(raw)
	if err != nil {
		t.Fatalf("ParseMediaPlan failed: %v", err)
	}
	if plan.ID == "" {
		t.Error("plan should get a locally generated id")
	}
	post := plan.Weeks[0].Posts[0]
	if post.ID == "" {
		t.Error("post should get a locally generated id")
	}
	if post.Status != "draft" {
		t.Errorf("new posts should start as drafts, got %q", post.Status)
	}
	if post.MediaPrompt != "a sunny park scene" {
		t.Errorf("media prompt = %q", post.MediaPrompt)
	}
}

func TestParseMediaPlan_RejectsEmptyPlan(t *testing.T) {
	if _, err := ParseMediaPlan(`{"name": "Empty", "weeks": []}`); err == nil {
		t.Error("expected error for plan without weeks")
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\": 1}", "{\"a\": 1}"},
		{"```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"```\n[1, 2]\n```", "[1, 2]"},
		{"  {\"a\": 1}  ", "{\"a\": 1}"},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	uri := EncodeDataURI("image/png", []byte{1, 2, 3})
	mimeType, data, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if mimeType != "image/png" || len(data) != 3 {
		t.Errorf("decoded = (%q, %v)", mimeType, data)
	}

	if _, _, err := DecodeDataURI("https://example.com/a.png"); err == nil {
		t.Error("plain URL must not parse as a data URI")
	}
}
