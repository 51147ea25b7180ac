// Package render turns an analysis result into an ordered view tree shared by
// the text and HTML surfaces.
package render

import (
	"strconv"
	"strings"

	"resume-analyzer-web/internal/analysis"
)

// Title heads every rendered result.
const Title = "Resume Analysis Results"

// Kind selects how a section is drawn.
type Kind string

const (
	KindField Kind = "field"
	KindList  Kind = "list"
	KindLinks Kind = "links"
)

// Link is a hyperlink that opens in a new browsing context.
type Link struct {
	Label  string `json:"label"`
	Href   string `json:"href"`
	Target string `json:"target"`
	Rel    string `json:"rel"`
}

// Section is one labelled line or block.
type Section struct {
	Kind  Kind     `json:"kind"`
	Label string   `json:"label"`
	Value string   `json:"value,omitempty"`
	Items []string `json:"items,omitempty"`
	Links []Link   `json:"links,omitempty"`
}

// View is the rendered form of one result.
type View struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
	// SkillsCloud lists the skills for the cloud; empty means no cloud.
	SkillsCloud []string `json:"skillsCloud,omitempty"`
}

// Build renders r. Absent, empty and zero-valued fields are omitted; a score
// of 0 is therefore indistinguishable from no score. A nil result gives nil.
func Build(r *analysis.Result) *View {
	if r == nil {
		return nil
	}
	v := &View{Title: Title}

	v.field("Name", r.Name)
	v.field("Email", r.Email)
	v.field("Job Title", r.JobTitle)
	if r.ATSScore != "" {
		v.field("ATS Score", r.ATSScore.String())
	}
	if len(r.Skills) > 0 {
		v.field("Skills Count", strconv.Itoa(len(r.Skills)))
		v.field("Skills", strings.Join(r.Skills, ", "))
		v.SkillsCloud = append([]string(nil), r.Skills...)
	}
	if len(r.Achievements) > 0 {
		v.Sections = append(v.Sections, Section{
			Kind:  KindList,
			Label: "Achievements",
			Items: append([]string(nil), r.Achievements...),
		})
	}
	if len(r.SkillsToLearn) > 0 {
		v.field("Skills to Learn", strings.Join(r.SkillsToLearn, ", "))
	}
	if len(r.RecommendedCourses) > 0 {
		links := make([]Link, 0, len(r.RecommendedCourses))
		for _, c := range r.RecommendedCourses {
			links = append(links, Link{Label: c.Label, Href: c.URL, Target: "_blank", Rel: "noopener"})
		}
		v.Sections = append(v.Sections, Section{Kind: KindLinks, Label: "Recommended Courses", Links: links})
	}
	return v
}

func (v *View) field(label, value string) {
	if value == "" {
		return
	}
	v.Sections = append(v.Sections, Section{Kind: KindField, Label: label, Value: value})
}
