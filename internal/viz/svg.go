package viz

import (
	"bufio"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravkern/internal/dynamo"
)

// WriteTrajectorySVG draws one path per body through the given states,
// framed and projected with cam the same way the live view does. A path is
// broken wherever a position leaves the frame or is non-finite. Each body's
// last position is marked with a dot.
func WriteTrajectorySVG(w io.Writer, states []*dynamo.Ensemble, cam *Camera, width, height int, theme Theme) error {
	if len(states) == 0 {
		return fmt.Errorf("no states to draw")
	}
	if cam == nil {
		cam = NewCamera()
	}

	c := centre(states[0])
	all := make([]r3.Vec, 0, len(states)*states[0].Len())
	for _, e := range states {
		all = append(all, e.Positions...)
	}
	cam.Fit(all, c, width, height)

	palette := []string{
		string(theme.Primary),
		string(theme.Accent),
		string(theme.Success),
		string(theme.Warning),
		string(theme.Error),
		string(theme.Text),
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	n := states[0].Len()
	for i := 0; i < n; i++ {
		colour := palette[i%len(palette)]
		fmt.Fprintf(bw, `<path fill="none" stroke="%s" stroke-width="1" d="`, colour)
		pen := false
		for _, e := range states {
			if i >= e.Len() {
				pen = false
				continue
			}
			x, y, ok := cam.Project(e.Positions[i], c, width, height)
			if !ok {
				pen = false
				continue
			}
			if pen {
				fmt.Fprintf(bw, " L%d,%d", x, y)
			} else {
				fmt.Fprintf(bw, " M%d,%d", x, y)
				pen = true
			}
		}
		bw.WriteString("\"/>\n")

		last := states[len(states)-1]
		if i < last.Len() {
			if x, y, ok := cam.Project(last.Positions[i], c, width, height); ok {
				fmt.Fprintf(bw, `<circle cx="%d" cy="%d" r="3" fill="%s"><title>%s</title></circle>
`, x, y, colour, last.Name(i))
			}
		}
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}
