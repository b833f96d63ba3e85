package graph

import (
	"time"

	"brandforge/internal/core"
)

// Edit is a tagged, pure transformation applied to a ContentGraph. The set
// of edits is closed within this package; Apply treats any Edit type it does
// not recognize as a no-op so that newer edit types can flow through older
// dispatch paths safely.
type Edit interface {
	isEdit()
}

// MediaSlot selects which media key of a post an edit targets.
type MediaSlot string

const (
	MediaSlotImage MediaSlot = "image"
	MediaSlotVideo MediaSlot = "video"
)

// PostRef addresses a post positionally. Weeks and posts are stored in
// order, so a post is located by its plan id plus week and post indexes,
// not by post id alone.
type PostRef struct {
	PlanID    string `json:"plan_id"`
	WeekIndex int    `json:"week_index"`
	PostIndex int    `json:"post_index"`
}

// PostFields carries a partial update for a post. Nil pointers leave the
// corresponding field untouched; nil slices likewise.
type PostFields struct {
	Platform     *string          `json:"platform,omitempty"`
	Title        *string          `json:"title,omitempty"`
	Content      *string          `json:"content,omitempty"`
	Hashtags     []string         `json:"hashtags,omitempty"`
	MediaPrompt  *string          `json:"media_prompt,omitempty"`
	MediaOrder   []string         `json:"media_order,omitempty"`
	Promoted     []string         `json:"promoted_product_ids,omitempty"`
	Status       *core.PostStatus `json:"status,omitempty"`
	ScheduledAt  *time.Time       `json:"scheduled_at,omitempty"`
	PublishedAt  *time.Time       `json:"published_at,omitempty"`
	PublishedURL *string          `json:"published_url,omitempty"`
}

// Initialize replaces the brand foundation and seed plans wholesale. Used
// for the first generation step and for "start over".
type Initialize struct {
	Foundation core.BrandFoundation
	Plans      []core.MediaPlanGroup
}

// AddPlan appends a newly generated media plan group.
type AddPlan struct {
	Plan core.MediaPlanGroup
}

// UpdatePostFields merges a partial field set into the post at Ref.
type UpdatePostFields struct {
	Ref    PostRef
	Fields PostFields
}

// ReassignMediaKey points the post at Ref at a different blob map entry.
type ReassignMediaKey struct {
	Ref  PostRef
	Slot MediaSlot
	Key  core.MediaKey
}

// MediaKeyAssignment is one entry of a BulkUpdateMediaKeys edit.
type MediaKeyAssignment struct {
	Ref  PostRef
	Slot MediaSlot
	Key  core.MediaKey
}

// BulkUpdateMediaKeys reassigns media keys on many posts at once.
// Assignments whose target is missing are skipped.
type BulkUpdateMediaKeys struct {
	Assignments []MediaKeyAssignment
}

// PostSchedule is one entry of a BulkSchedule edit.
type PostSchedule struct {
	Ref PostRef
	At  time.Time
}

// BulkSchedule marks many posts as scheduled at the given times.
type BulkSchedule struct {
	Schedules []PostSchedule
}

// UpsertAffiliateLink inserts or replaces an affiliate link by id.
type UpsertAffiliateLink struct {
	Link core.AffiliateLink
}

// DeleteAffiliateLink removes an affiliate link. Posts that still promote
// the removed link keep their references; those references are filtered out
// at read time instead of cascading the delete.
type DeleteAffiliateLink struct {
	LinkID string
}

// ImportLinks upserts a batch of scraped or imported affiliate links.
type ImportLinks struct {
	Links []core.AffiliateLink
}

// UpsertPersona inserts or replaces a persona by id. When an already
// assigned persona's outfit changes, the prompt prefixes on its plans are
// rewritten to the new outfit.
type UpsertPersona struct {
	Persona core.Persona
}

// DeletePersona removes a persona. Plans assigned to it are unassigned and
// their posts' outfit prefixes are stripped.
type DeletePersona struct {
	PersonaID string
}

// UpsertTrend inserts or replaces a trend by id.
type UpsertTrend struct {
	Trend core.Trend
}

// DeleteTrend removes a trend together with the ideas derived from it.
type DeleteTrend struct {
	TrendID string
}

// AddIdeas replaces all existing ideas for the same trend with the new
// batch. Regenerating ideas for a trend is last-write-wins, never an
// append of duplicates.
type AddIdeas struct {
	TrendID string
	Ideas   []core.PostIdea
}

// AppendPostIdeas appends additional ideas for a trend without replacing
// the existing batch.
type AppendPostIdeas struct {
	TrendID string
	Ideas   []core.PostIdea
}

// AddContentPackage appends a generated themed week of posts to a plan.
type AddContentPackage struct {
	PlanID string
	Week   core.Week
}

// AssignPersonaToPlan assigns a persona to a plan, or clears the assignment
// when PersonaID is empty. Every post in the plan with a non-empty media
// prompt has the previous persona's outfit prefix stripped and the new
// persona's prefix prepended; posts without a media prompt are untouched.
type AssignPersonaToPlan struct {
	PlanID    string
	PersonaID string
}

// SetTrendList replaces the whole trend collection.
type SetTrendList struct {
	Trends []core.Trend
}

func (Initialize) isEdit()          {}
func (AddPlan) isEdit()             {}
func (UpdatePostFields) isEdit()    {}
func (ReassignMediaKey) isEdit()    {}
func (BulkUpdateMediaKeys) isEdit() {}
func (BulkSchedule) isEdit()        {}
func (UpsertAffiliateLink) isEdit() {}
func (DeleteAffiliateLink) isEdit() {}
func (ImportLinks) isEdit()         {}
func (UpsertPersona) isEdit()       {}
func (DeletePersona) isEdit()       {}
func (UpsertTrend) isEdit()         {}
func (DeleteTrend) isEdit()         {}
func (AddIdeas) isEdit()            {}
func (AppendPostIdeas) isEdit()     {}
func (AddContentPackage) isEdit()   {}
func (AssignPersonaToPlan) isEdit() {}
func (SetTrendList) isEdit()        {}
