package graph

import (
	"strings"

	"brandforge/internal/core"
)

// Apply is the state reduction function for the content graph: it consumes
// the whole prior graph and an edit and produces a whole new graph. It never
// mutates its input and never returns an error. A nil graph, an unknown edit
// type, or an edit whose target does not exist all yield the input graph
// unchanged.
func Apply(g *core.ContentGraph, e Edit) *core.ContentGraph {
	if g == nil {
		return nil
	}

	switch e := e.(type) {
	case Initialize:
		return applyInitialize(g, e)
	case AddPlan:
		return applyAddPlan(g, e)
	case UpdatePostFields:
		return withPostAt(g, e.Ref, func(p core.Post) core.Post { return mergePostFields(p, e.Fields) })
	case ReassignMediaKey:
		return withPostAt(g, e.Ref, func(p core.Post) core.Post { return setMediaKey(p, e.Slot, e.Key) })
	case BulkUpdateMediaKeys:
		for _, a := range e.Assignments {
			slot, key := a.Slot, a.Key
			g = withPostAt(g, a.Ref, func(p core.Post) core.Post { return setMediaKey(p, slot, key) })
		}
		return g
	case BulkSchedule:
		for _, s := range e.Schedules {
			at := s.At
			g = withPostAt(g, s.Ref, func(p core.Post) core.Post {
				p.Status = core.PostStatusScheduled
				p.ScheduledAt = &at
				return p
			})
		}
		return g
	case UpsertAffiliateLink:
		return applyUpsertLinks(g, []core.AffiliateLink{e.Link})
	case ImportLinks:
		return applyUpsertLinks(g, e.Links)
	case DeleteAffiliateLink:
		return applyDeleteLink(g, e.LinkID)
	case UpsertPersona:
		return applyUpsertPersona(g, e.Persona)
	case DeletePersona:
		return applyDeletePersona(g, e.PersonaID)
	case UpsertTrend:
		return applyUpsertTrend(g, e.Trend)
	case DeleteTrend:
		return applyDeleteTrend(g, e.TrendID)
	case AddIdeas:
		return applyAddIdeas(g, e.TrendID, e.Ideas, true)
	case AppendPostIdeas:
		return applyAddIdeas(g, e.TrendID, e.Ideas, false)
	case AddContentPackage:
		return applyAddContentPackage(g, e)
	case AssignPersonaToPlan:
		return applyAssignPersona(g, e)
	case SetTrendList:
		next := *g
		next.Trends = append([]core.Trend(nil), e.Trends...)
		return &next
	default:
		// Unknown edit types are no-ops for forward compatibility.
		return g
	}
}

func applyInitialize(g *core.ContentGraph, e Initialize) *core.ContentGraph {
	next := *g
	foundation := e.Foundation
	next.BrandFoundation = &foundation
	next.MediaPlanGroups = append([]core.MediaPlanGroup(nil), e.Plans...)
	return &next
}

func applyAddPlan(g *core.ContentGraph, e AddPlan) *core.ContentGraph {
	next := *g
	next.MediaPlanGroups = append(append([]core.MediaPlanGroup(nil), g.MediaPlanGroups...), e.Plan)
	return &next
}

func applyUpsertLinks(g *core.ContentGraph, links []core.AffiliateLink) *core.ContentGraph {
	if len(links) == 0 {
		return g
	}
	next := *g
	out := append([]core.AffiliateLink(nil), g.AffiliateLinks...)
	for _, link := range links {
		replaced := false
		for i := range out {
			if out[i].ID == link.ID {
				out[i] = link
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, link)
		}
	}
	next.AffiliateLinks = out
	return &next
}

func applyDeleteLink(g *core.ContentGraph, linkID string) *core.ContentGraph {
	idx := -1
	for i := range g.AffiliateLinks {
		if g.AffiliateLinks[i].ID == linkID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g
	}
	next := *g
	out := make([]core.AffiliateLink, 0, len(g.AffiliateLinks)-1)
	out = append(out, g.AffiliateLinks[:idx]...)
	out = append(out, g.AffiliateLinks[idx+1:]...)
	next.AffiliateLinks = out
	// Posts promoting the deleted link keep their references; readers filter
	// stale ids via ContentGraph.PromotedLinks.
	return &next
}

func applyUpsertPersona(g *core.ContentGraph, persona core.Persona) *core.ContentGraph {
	next := *g
	out := append([]core.Persona(nil), g.Personas...)
	var oldOutfit string
	replaced := false
	for i := range out {
		if out[i].ID == persona.ID {
			oldOutfit = out[i].Outfit
			out[i] = persona
			replaced = true
			break
		}
	}
	if !replaced {
		out = append(out, persona)
	}
	next.Personas = out

	// An outfit change on an already assigned persona must be reflected in
	// the prompt prefixes of every plan voiced by it.
	if replaced && oldOutfit != persona.Outfit {
		plans := append([]core.MediaPlanGroup(nil), next.MediaPlanGroups...)
		for i := range plans {
			if plans[i].PersonaID == persona.ID {
				plans[i] = rewritePlanOutfit(plans[i], oldOutfit, persona.Outfit)
			}
		}
		next.MediaPlanGroups = plans
	}
	return &next
}

func applyDeletePersona(g *core.ContentGraph, personaID string) *core.ContentGraph {
	persona := g.FindPersona(personaID)
	if persona == nil {
		return g
	}
	next := *g
	out := make([]core.Persona, 0, len(g.Personas)-1)
	for _, p := range g.Personas {
		if p.ID != personaID {
			out = append(out, p)
		}
	}
	next.Personas = out

	// Unassign the persona from every plan it voices, stripping its outfit
	// prefix from the posts' media prompts.
	plans := append([]core.MediaPlanGroup(nil), next.MediaPlanGroups...)
	for i := range plans {
		if plans[i].PersonaID == personaID {
			plans[i] = rewritePlanOutfit(plans[i], persona.Outfit, "")
			plans[i].PersonaID = ""
		}
	}
	next.MediaPlanGroups = plans
	return &next
}

func applyUpsertTrend(g *core.ContentGraph, trend core.Trend) *core.ContentGraph {
	next := *g
	out := append([]core.Trend(nil), g.Trends...)
	replaced := false
	for i := range out {
		if out[i].ID == trend.ID {
			out[i] = trend
			replaced = true
			break
		}
	}
	if !replaced {
		out = append(out, trend)
	}
	next.Trends = out
	return &next
}

func applyDeleteTrend(g *core.ContentGraph, trendID string) *core.ContentGraph {
	idx := -1
	for i := range g.Trends {
		if g.Trends[i].ID == trendID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g
	}
	next := *g
	trends := make([]core.Trend, 0, len(g.Trends)-1)
	trends = append(trends, g.Trends[:idx]...)
	trends = append(trends, g.Trends[idx+1:]...)
	next.Trends = trends

	ideas := make([]core.PostIdea, 0, len(g.Ideas))
	for _, idea := range g.Ideas {
		if idea.TrendID != trendID {
			ideas = append(ideas, idea)
		}
	}
	next.Ideas = ideas
	return &next
}

// applyAddIdeas adds generated ideas for a trend. When replace is true the
// existing batch for that trend is dropped first, so regenerating ideas is
// last-write-wins per trend rather than an accumulation of duplicates.
func applyAddIdeas(g *core.ContentGraph, trendID string, ideas []core.PostIdea, replace bool) *core.ContentGraph {
	found := false
	for i := range g.Trends {
		if g.Trends[i].ID == trendID {
			found = true
			break
		}
	}
	if !found {
		return g
	}
	next := *g
	out := make([]core.PostIdea, 0, len(g.Ideas)+len(ideas))
	for _, idea := range g.Ideas {
		if replace && idea.TrendID == trendID {
			continue
		}
		out = append(out, idea)
	}
	out = append(out, ideas...)
	next.Ideas = out
	return &next
}

func applyAddContentPackage(g *core.ContentGraph, e AddContentPackage) *core.ContentGraph {
	idx := planIndex(g, e.PlanID)
	if idx < 0 {
		return g
	}
	next := *g
	plans := append([]core.MediaPlanGroup(nil), g.MediaPlanGroups...)
	plan := plans[idx]
	plan.Weeks = append(append([]core.Week(nil), plan.Weeks...), e.Week)
	plans[idx] = plan
	next.MediaPlanGroups = plans
	return &next
}

func applyAssignPersona(g *core.ContentGraph, e AssignPersonaToPlan) *core.ContentGraph {
	idx := planIndex(g, e.PlanID)
	if idx < 0 {
		return g
	}
	var newOutfit string
	if e.PersonaID != "" {
		persona := g.FindPersona(e.PersonaID)
		if persona == nil {
			return g
		}
		newOutfit = persona.Outfit
	}
	var oldOutfit string
	if old := g.FindPersona(g.MediaPlanGroups[idx].PersonaID); old != nil {
		oldOutfit = old.Outfit
	}

	next := *g
	plans := append([]core.MediaPlanGroup(nil), g.MediaPlanGroups...)
	plan := rewritePlanOutfit(plans[idx], oldOutfit, newOutfit)
	plan.PersonaID = e.PersonaID
	plans[idx] = plan
	next.MediaPlanGroups = plans
	return &next
}

// rewritePlanOutfit rewrites the outfit prefix on every post in the plan
// that has a non-empty media prompt: the old outfit's prefix is stripped if
// present, then the new outfit's prefix is prepended. Stripping before
// prepending keeps the rewrite idempotent across repeated reassignments.
func rewritePlanOutfit(plan core.MediaPlanGroup, oldOutfit, newOutfit string) core.MediaPlanGroup {
	if oldOutfit == newOutfit {
		return plan
	}
	weeks := append([]core.Week(nil), plan.Weeks...)
	for wi := range weeks {
		posts := append([]core.Post(nil), weeks[wi].Posts...)
		for pi := range posts {
			if posts[pi].MediaPrompt == "" {
				continue
			}
			prompt := stripOutfitPrefix(posts[pi].MediaPrompt, oldOutfit)
			if newOutfit != "" {
				prompt = newOutfit + ", " + prompt
			}
			posts[pi].MediaPrompt = prompt
		}
		weeks[wi].Posts = posts
	}
	plan.Weeks = weeks
	return plan
}

func stripOutfitPrefix(prompt, outfit string) string {
	if outfit == "" {
		return prompt
	}
	return strings.TrimPrefix(prompt, outfit+", ")
}

func mergePostFields(p core.Post, f PostFields) core.Post {
	if f.Platform != nil {
		p.Platform = *f.Platform
	}
	if f.Title != nil {
		p.Title = *f.Title
	}
	if f.Content != nil {
		p.Content = *f.Content
	}
	if f.Hashtags != nil {
		p.Hashtags = append([]string(nil), f.Hashtags...)
	}
	if f.MediaPrompt != nil {
		p.MediaPrompt = *f.MediaPrompt
	}
	if f.MediaOrder != nil {
		p.MediaOrder = append([]string(nil), f.MediaOrder...)
	}
	if f.Promoted != nil {
		p.PromotedProductIDs = append([]string(nil), f.Promoted...)
	}
	if f.Status != nil {
		p.Status = *f.Status
	}
	if f.ScheduledAt != nil {
		at := *f.ScheduledAt
		p.ScheduledAt = &at
	}
	if f.PublishedAt != nil {
		at := *f.PublishedAt
		p.PublishedAt = &at
	}
	if f.PublishedURL != nil {
		p.PublishedURL = *f.PublishedURL
	}
	return p
}

func setMediaKey(p core.Post, slot MediaSlot, key core.MediaKey) core.Post {
	switch slot {
	case MediaSlotImage:
		p.ImageKey = key
	case MediaSlotVideo:
		p.VideoKey = key
	}
	return p
}

func planIndex(g *core.ContentGraph, planID string) int {
	for i := range g.MediaPlanGroups {
		if g.MediaPlanGroups[i].ID == planID {
			return i
		}
	}
	return -1
}

// withPostAt applies fn to the post addressed by ref, structurally copying
// only the touched path (plans slice, the one plan's weeks, the one week's
// posts). A ref that does not resolve leaves the graph untouched.
func withPostAt(g *core.ContentGraph, ref PostRef, fn func(core.Post) core.Post) *core.ContentGraph {
	idx := planIndex(g, ref.PlanID)
	if idx < 0 {
		return g
	}
	plan := g.MediaPlanGroups[idx]
	if ref.WeekIndex < 0 || ref.WeekIndex >= len(plan.Weeks) {
		return g
	}
	week := plan.Weeks[ref.WeekIndex]
	if ref.PostIndex < 0 || ref.PostIndex >= len(week.Posts) {
		return g
	}

	posts := append([]core.Post(nil), week.Posts...)
	posts[ref.PostIndex] = fn(posts[ref.PostIndex])
	weeks := append([]core.Week(nil), plan.Weeks...)
	weeks[ref.WeekIndex].Posts = posts
	plans := append([]core.MediaPlanGroup(nil), g.MediaPlanGroups...)
	plans[idx].Weeks = weeks

	next := *g
	next.MediaPlanGroups = plans
	return &next
}
