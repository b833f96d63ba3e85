package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"brandforge/internal/core"
)

// BrandFoundationPromptTemplate asks for a brand identity as strict JSON.
const BrandFoundationPromptTemplate = `You are a brand strategist. Based on the following brief, define a brand foundation.

Brief:
%s

Respond with ONLY a JSON object, no commentary, in this exact shape:
{
  "name": "brand name",
  "mission": "one sentence mission",
  "audience": "target audience description",
  "personality": "brand voice and personality",
  "values": ["value", "value", "value"],
  "messaging": ["key message", "key message", "key message"]
}`

// MediaPlanPromptTemplate asks for a multi-week media plan as strict JSON.
const MediaPlanPromptTemplate = `You are a social media planner for the brand below.

Brand: %s
Mission: %s
Audience: %s
Personality: %s

Create a %d-week media plan with %d posts per week across Instagram and TikTok.

Respond with ONLY a JSON object, no commentary, in this exact shape:
{
  "name": "plan name",
  "weeks": [
    {
      "theme": "weekly theme",
      "posts": [
        {
          "platform": "instagram",
          "title": "post hook",
          "content": "post caption",
          "hashtags": ["#tag"],
          "media_prompt": "scene description for the post image"
        }
      ]
    }
  ]
}`

// PostIdeasPromptTemplate asks for post ideas derived from a trend.
const PostIdeasPromptTemplate = `You are a social media planner for the brand "%s" (%s).

The following trend is relevant right now:
Trend: %s
Description: %s

Suggest %d post ideas riding this trend. Respond with ONLY a JSON array, no
commentary: [{"title": "idea headline", "angle": "how to treat it"}]`

// ParseBrandFoundation parses a model's JSON answer into a BrandFoundation.
func ParseBrandFoundation(raw string) (*core.BrandFoundation, error) {
	var foundation core.BrandFoundation
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &foundation); err != nil {
		return nil, fmt.Errorf("failed to parse brand foundation response: %w", err)
	}
	if foundation.Name == "" {
		return nil, fmt.Errorf("brand foundation response is missing a name")
	}
	return &foundation, nil
}

// ParseMediaPlan parses a model's JSON answer into a MediaPlanGroup,
// assigning fresh local ids to the plan and every post. The remote store's
// identifiers never enter here; ids are generated locally and stay stable
// for the entity's lifetime.
func ParseMediaPlan(raw string) (*core.MediaPlanGroup, error) {
	var parsed struct {
		Name  string `json:"name"`
		Weeks []struct {
			Theme string `json:"theme"`
			Posts []struct {
				Platform    string   `json:"platform"`
				Title       string   `json:"title"`
				Content     string   `json:"content"`
				Hashtags    []string `json:"hashtags"`
				MediaPrompt string   `json:"media_prompt"`
			} `json:"posts"`
		} `json:"weeks"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse media plan response: %w", err)
	}
	if len(parsed.Weeks) == 0 {
		return nil, fmt.Errorf("media plan response contains no weeks")
	}

	plan := core.MediaPlanGroup{
		ID:        uuid.NewString(),
		Name:      parsed.Name,
		CreatedAt: time.Now().UTC(),
	}
	for _, week := range parsed.Weeks {
		w := core.Week{Theme: week.Theme}
		for _, post := range week.Posts {
			w.Posts = append(w.Posts, core.Post{
				ID:          uuid.NewString(),
				Platform:    post.Platform,
				Title:       post.Title,
				Content:     post.Content,
				Hashtags:    post.Hashtags,
				MediaPrompt: post.MediaPrompt,
				Status:      core.PostStatusDraft,
			})
		}
		plan.Weeks = append(plan.Weeks, w)
	}
	return &plan, nil
}

// ParsePostIdeas parses a model's JSON answer into PostIdeas for a trend.
func ParsePostIdeas(raw, trendID string) ([]core.PostIdea, error) {
	var parsed []struct {
		Title string `json:"title"`
		Angle string `json:"angle"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse post ideas response: %w", err)
	}
	ideas := make([]core.PostIdea, 0, len(parsed))
	for _, idea := range parsed {
		ideas = append(ideas, core.PostIdea{
			ID:      uuid.NewString(),
			TrendID: trendID,
			Title:   idea.Title,
			Angle:   idea.Angle,
		})
	}
	return ideas, nil
}

// stripCodeFences removes a surrounding markdown code fence if the model
// wrapped its JSON in one.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
