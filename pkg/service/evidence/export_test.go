package evidence

import "github.com/secmon-lab/amlcase/pkg/domain/interfaces"

// SectionLines flattens the rendered sections for testing, with titles as their own lines.
func SectionLines(pack *interfaces.EvidencePack) []string {
	var out []string
	for _, s := range buildSections(pack) {
		if s.title != "" {
			out = append(out, s.title)
		}
		out = append(out, s.lines...)
	}
	return out
}

func Header(pack *interfaces.EvidencePack) string {
	return header(pack)
}
