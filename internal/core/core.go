package core

import "time"

// MediaKey identifies an entry in the image or video blob map. It is a
// distinct type so image keys, video keys and arbitrary strings cannot be
// mixed up at call sites.
type MediaKey string

// Capability names an external prerequisite that must be satisfied before a
// privileged operation may run.
type Capability string

const (
	CapabilityStorage     Capability = "storage"      // object/media store credentials
	CapabilityRemoteStore Capability = "remote_store" // remote relational store credentials
	CapabilityTextGen     Capability = "text_gen"     // text generation provider key
	CapabilityImageGen    Capability = "image_gen"    // image generation provider key
)

// PostStatus tracks a post through its publishing lifecycle.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusError     PostStatus = "error"
)

// BrandFoundation holds the brand identity produced by the initial
// generation step. It is set once per project and only replaced wholesale
// when the user starts over.
type BrandFoundation struct {
	Name        string   `json:"name"`        // Brand name
	Mission     string   `json:"mission"`     // Mission statement
	Audience    string   `json:"audience"`    // Target audience description
	Personality string   `json:"personality"` // Brand personality/voice
	Values      []string `json:"values"`      // Core brand values
	Messaging   []string `json:"messaging"`   // Key messaging pillars
}

// Post is a single planned social media post inside a week.
type Post struct {
	ID                 string     `json:"id"`                             // Locally generated, stable for the post's lifetime
	Platform           string     `json:"platform"`                       // Target platform (e.g., "instagram", "tiktok")
	Title              string     `json:"title"`                          // Post headline/hook
	Content            string     `json:"content"`                        // Post body/caption text
	Hashtags           []string   `json:"hashtags"`                       // Suggested hashtags
	MediaPrompt        string     `json:"media_prompt,omitempty"`         // Prompt used to generate attached media
	ImageKey           MediaKey   `json:"image_key,omitempty"`            // Indirection into the image blob map
	VideoKey           MediaKey   `json:"video_key,omitempty"`            // Indirection into the video blob map
	MediaOrder         []string   `json:"media_order,omitempty"`          // Presentation order of attached media types
	PromotedProductIDs []string   `json:"promoted_product_ids,omitempty"` // References into ContentGraph.AffiliateLinks
	Status             PostStatus `json:"status"`                         // Publishing lifecycle state
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`         // When the post is scheduled to go out
	PublishedAt        *time.Time `json:"published_at,omitempty"`         // When the post actually went out
	PublishedURL       string     `json:"published_url,omitempty"`        // Permalink returned by the platform
}

// Week is an ordered batch of posts inside a media plan group.
type Week struct {
	Theme string `json:"theme"` // Weekly content theme
	Posts []Post `json:"posts"` // Ordered posts for the week
}

// MediaPlanGroup is one generated media plan: an ordered list of weeks,
// optionally voiced by a persona.
type MediaPlanGroup struct {
	ID        string    `json:"id"`                   // Locally generated, stable
	Name      string    `json:"name"`                 // Display name for the plan
	PersonaID string    `json:"persona_id,omitempty"` // Optional reference into ContentGraph.Personas
	Weeks     []Week    `json:"weeks"`                // Ordered weeks
	CreatedAt time.Time `json:"created_at"`           // When the plan was generated
}

// AffiliateLink is a promotable product the user has imported.
type AffiliateLink struct {
	ID          string   `json:"id"`                    // Locally generated, stable
	Name        string   `json:"name"`                  // Product name
	Provider    string   `json:"provider"`              // Merchant/network name
	URL         string   `json:"url"`                   // Affiliate URL
	Description string   `json:"description,omitempty"` // Product description
	Features    []string `json:"features,omitempty"`    // Notable product features
	UseCases    []string `json:"use_cases,omitempty"`   // Suggested use cases
	Reviews     string   `json:"reviews,omitempty"`     // Review excerpt text
	Rating      *float64 `json:"rating,omitempty"`      // Average rating, nil when unknown
	Clicks      int      `json:"clicks"`                // Popularity metric used as a tie breaker
}

// Persona is a presenter identity that can voice a media plan. Its outfit
// description is injected as a prefix into post media prompts while the
// persona is assigned.
type Persona struct {
	ID       string   `json:"id"`                  // Locally generated, stable
	Name     string   `json:"name"`                // Persona display name
	Outfit   string   `json:"outfit"`              // Outfit description injected into media prompts
	Style    string   `json:"style,omitempty"`     // Visual/tonal style notes
	PhotoKey MediaKey `json:"photo_key,omitempty"` // Reference photo in the image blob map
}

// Trend is a content trend the user is tracking for idea generation.
type Trend struct {
	ID          string `json:"id"`                    // Locally generated, stable
	Name        string `json:"name"`                  // Trend name
	Description string `json:"description,omitempty"` // What the trend is about
	Source      string `json:"source,omitempty"`      // Where the trend was observed
}

// PostIdea is a generated post idea derived from a trend.
type PostIdea struct {
	ID      string `json:"id"`       // Locally generated, stable
	TrendID string `json:"trend_id"` // Trend this idea was derived from
	Title   string `json:"title"`    // Idea headline
	Angle   string `json:"angle"`    // Suggested angle/treatment
}

// ContentGraph is the whole in-memory aggregate for one open project. Every
// edit consumes a graph and produces a new one; the graph is never mutated
// in place, so concurrent readers never observe a torn state.
type ContentGraph struct {
	BrandFoundation *BrandFoundation `json:"brand_foundation,omitempty"` // Set by the initialize edit
	MediaPlanGroups []MediaPlanGroup `json:"media_plan_groups"`          // Generated media plans
	AffiliateLinks  []AffiliateLink  `json:"affiliate_links"`            // Imported promotable products
	Personas        []Persona        `json:"personas"`                   // Presenter personas
	Trends          []Trend          `json:"trends"`                     // Tracked trends
	Ideas           []PostIdea       `json:"ideas"`                      // Generated post ideas, keyed by trend
}

// FindPlan returns the media plan group with the given id, or nil.
func (g *ContentGraph) FindPlan(planID string) *MediaPlanGroup {
	if g == nil {
		return nil
	}
	for i := range g.MediaPlanGroups {
		if g.MediaPlanGroups[i].ID == planID {
			return &g.MediaPlanGroups[i]
		}
	}
	return nil
}

// FindPersona returns the persona with the given id, or nil.
func (g *ContentGraph) FindPersona(personaID string) *Persona {
	if g == nil || personaID == "" {
		return nil
	}
	for i := range g.Personas {
		if g.Personas[i].ID == personaID {
			return &g.Personas[i]
		}
	}
	return nil
}

// FindLink returns the affiliate link with the given id, or nil.
func (g *ContentGraph) FindLink(linkID string) *AffiliateLink {
	if g == nil {
		return nil
	}
	for i := range g.AffiliateLinks {
		if g.AffiliateLinks[i].ID == linkID {
			return &g.AffiliateLinks[i]
		}
	}
	return nil
}

// PromotedLinks resolves a post's promoted product ids against the graph's
// affiliate links. Stale references (links deleted after being promoted) are
// filtered out rather than treated as an error.
func (g *ContentGraph) PromotedLinks(post *Post) []AffiliateLink {
	if g == nil || post == nil || len(post.PromotedProductIDs) == 0 {
		return nil
	}
	var links []AffiliateLink
	for _, id := range post.PromotedProductIDs {
		if l := g.FindLink(id); l != nil {
			links = append(links, *l)
		}
	}
	return links
}
