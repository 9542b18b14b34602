package export

import (
	"fmt"
	"html"
	"strings"
)

// Series is one polyline of a chart.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

// LinesToSVG draws every series against its index on a shared vertical
// scale starting at zero. Series shorter than two points are skipped.
func LinesToSVG(title string, series []Series, width, height int) string {
	maxY, maxLen := 0.0, 0
	for _, s := range series {
		maxLen = max(maxLen, len(s.Values))
		for _, v := range s.Values {
			maxY = max(maxY, v)
		}
	}
	if maxLen < 2 {
		return ""
	}
	if maxY == 0 {
		maxY = 1
	}
	maxY *= 1.1

	const pad = 30.0
	plotW := float64(width) - 2*pad
	plotH := float64(height) - 2*pad

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="%.0f" y="20" fill="#aaaaaa" font-family="monospace" font-size="12">%s</text>
<path fill="none" stroke="#333333" d="M%.0f,%.0f L%.0f,%.0f L%.0f,%.0f"/>
`, width, height, width, height, pad, html.EscapeString(title),
		pad, pad, pad, pad+plotH, pad+plotW, pad+plotH))

	for i, s := range series {
		if len(s.Values) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Color))
		for j, v := range s.Values {
			x := pad + float64(j)/float64(maxLen-1)*plotW
			y := pad + plotH - v/maxY*plotH
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="%s" font-family="monospace" font-size="11">%s</text>
`, pad+plotW-120, pad+14*float64(i+1), s.Color, html.EscapeString(s.Name)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
