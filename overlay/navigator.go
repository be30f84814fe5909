package overlay

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	xterm "golang.org/x/term"

	"github.com/Gskartwii/wezterm/mux"
)

const navigatorPrompt = "tab> "

// TabNavigator returns an overlay function that lists titles and lets the
// user pick one by number. It yields the chosen index, or -1 when the input
// is empty, invalid or closed.
func TabNavigator(titles []string) Func[int] {
	return func(_ mux.TabID, c *Console) (int, error) {
		rows, cols := c.Size()
		t := xterm.NewTerminal(c, navigatorPrompt)
		if err := t.SetSize(cols, rows); err != nil {
			return -1, err
		}

		fmt.Fprintf(t, "Select a tab:\n")
		for i, title := range titles {
			fmt.Fprintf(t, "%3d: %s\n", i+1, title)
		}

		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			return -1, nil
		}
		if err != nil {
			return -1, err
		}
		return parseChoice(line, len(titles)), nil
	}
}

// parseChoice maps a 1-based answer to an index in [0, n).
func parseChoice(line string, n int) int {
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > n {
		return -1
	}
	return choice - 1
}
