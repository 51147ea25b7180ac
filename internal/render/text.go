package render

import (
	"bufio"
	"fmt"
	"io"
)

// WriteText writes v as plain text, one "Label: value" line per field.
func WriteText(w io.Writer, v *View) error {
	if v == nil {
		return nil
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, v.Title)
	for _, s := range v.Sections {
		switch s.Kind {
		case KindField:
			fmt.Fprintf(bw, "%s: %s\n", s.Label, s.Value)
		case KindList:
			fmt.Fprintf(bw, "%s:\n", s.Label)
			for _, item := range s.Items {
				fmt.Fprintf(bw, "  - %s\n", item)
			}
		case KindLinks:
			fmt.Fprintf(bw, "%s:\n", s.Label)
			for _, l := range s.Links {
				fmt.Fprintf(bw, "  - %s <%s>\n", l.Label, l.Href)
			}
		}
	}
	if len(v.SkillsCloud) > 0 {
		fmt.Fprintf(bw, "3D Skills Cloud: %d skill(s)\n", len(v.SkillsCloud))
	}
	return bw.Flush()
}
