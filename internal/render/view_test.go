package render

import (
	"bytes"
	"strings"
	"testing"

	"resume-analyzer-web/internal/analysis"
)

func TestBuildNameAndSkills(t *testing.T) {
	res, err := analysis.Decode([]byte(`{"name":"A","skills":["x","y"]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v := Build(res)

	var buf bytes.Buffer
	if err := WriteText(&buf, v); err != nil {
		t.Fatalf("write text: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Name: A", "Skills Count: 2", "Skills: x, y"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if len(v.SkillsCloud) != 2 {
		t.Fatalf("expected skills cloud with 2 glyphs, got %d", len(v.SkillsCloud))
	}
}

func TestBuildOmitsZeroScore(t *testing.T) {
	res, err := analysis.Decode([]byte(`{"name":"A","atsScore":0}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v := Build(res)
	if _, ok := lookup(v, "ATS Score"); ok {
		t.Fatal("a score of 0 must not render")
	}

	res.ATSScore = "71"
	v = Build(res)
	s, ok := lookup(v, "ATS Score")
	if !ok || s.Value != "71" {
		t.Fatalf("expected ATS Score 71, got %+v", s)
	}
}

func TestBuildOmitsEmptyFields(t *testing.T) {
	v := Build(&analysis.Result{
		Skills:        []string{},
		Achievements:  nil,
		SkillsToLearn: []string{},
	})
	if len(v.Sections) != 0 {
		t.Fatalf("expected no sections, got %+v", v.Sections)
	}
	if v.SkillsCloud != nil {
		t.Fatal("expected no skills cloud")
	}
	if v.Title != Title {
		t.Fatalf("unexpected title %q", v.Title)
	}
}

func TestBuildNilResult(t *testing.T) {
	if Build(nil) != nil {
		t.Fatal("expected nil view for nil result")
	}
	if err := WriteText(&bytes.Buffer{}, nil); err != nil {
		t.Fatalf("write nil view: %v", err)
	}
}

func TestBuildOrderAndKinds(t *testing.T) {
	res := &analysis.Result{
		Name:          "Ada",
		Email:         "ada@example.com",
		JobTitle:      "Engineer",
		ATSScore:      "88.5",
		Skills:        []string{"Go"},
		Achievements:  []string{"Shipped X", "Led Y"},
		SkillsToLearn: []string{"Rust", "Zig"},
		RecommendedCourses: []analysis.Course{
			{Label: "Rust Book", URL: "https://doc.rust-lang.org/book/"},
			{Label: "Odd", URL: "not a url"},
		},
	}
	v := Build(res)

	var labels []string
	for _, s := range v.Sections {
		labels = append(labels, s.Label)
	}
	want := "Name,Email,Job Title,ATS Score,Skills Count,Skills,Achievements,Skills to Learn,Recommended Courses"
	if got := strings.Join(labels, ","); got != want {
		t.Fatalf("unexpected order:\n got %s\nwant %s", got, want)
	}

	ach, _ := lookup(v, "Achievements")
	if ach.Kind != KindList || len(ach.Items) != 2 {
		t.Fatalf("unexpected achievements %+v", ach)
	}
	learn, _ := lookup(v, "Skills to Learn")
	if learn.Value != "Rust, Zig" {
		t.Fatalf("unexpected skills to learn %q", learn.Value)
	}
	courses, _ := lookup(v, "Recommended Courses")
	if courses.Kind != KindLinks || len(courses.Links) != 2 {
		t.Fatalf("unexpected courses %+v", courses)
	}
	first := courses.Links[0]
	if first.Label != "Rust Book" || first.Href != "https://doc.rust-lang.org/book/" || first.Target != "_blank" || first.Rel != "noopener" {
		t.Fatalf("unexpected link %+v", first)
	}
	if courses.Links[1].Href != "not a url" {
		t.Fatal("course URLs are passed through unvalidated")
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, v); err != nil {
		t.Fatalf("write text: %v", err)
	}
	for _, want := range []string{"ATS Score: 88.5", "  - Led Y", "  - Rust Book <https://doc.rust-lang.org/book/>", "3D Skills Cloud: 1 skill(s)"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in:\n%s", want, buf.String())
		}
	}
}

func TestBuildKeepsTextScore(t *testing.T) {
	res, err := analysis.Decode([]byte(`{"name":"A","atsScore":"N/A"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, ok := lookup(Build(res), "ATS Score")
	if !ok || s.Value != "N/A" {
		t.Fatalf("expected ATS Score N/A, got %+v", s)
	}
}

func lookup(v *View, label string) (Section, bool) {
	for _, s := range v.Sections {
		if s.Label == label {
			return s, true
		}
	}
	return Section{}, false
}
