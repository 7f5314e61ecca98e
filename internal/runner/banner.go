package runner

import "strings"

const (
	bannerWidth  = 150
	bannerTitle  = " [Runner Arguments] "
	bannerBorder = 60
	bannerBottom = 144
)

// Banner renders args between a titled top border and a plain bottom border,
// wrapped at whitespace so that no line exceeds 150 characters unless a
// single token is longer than that.
func Banner(args []string) string {
	var b strings.Builder
	b.WriteString("\n" + strings.Repeat("=", bannerBorder) + bannerTitle + strings.Repeat("=", bannerBorder) + "\n\n")
	for _, line := range wrap(strings.Join(args, " "), bannerWidth) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("\n" + strings.Repeat("=", bannerBottom) + "\n\n")
	return b.String()
}

func wrap(text string, width int) []string {
	var lines []string
	for len(text) > width {
		cut := strings.LastIndexByte(text[:width+1], ' ')
		if cut <= 0 {
			next := strings.IndexByte(text[width:], ' ')
			if next < 0 {
				break
			}
			cut = width + next
		}
		lines = append(lines, text[:cut])
		text = text[cut+1:]
	}
	return append(lines, text)
}
