package outputs

import (
	"fmt"
	"regexp"
	"strconv"
)

var modeRegexp = regexp.MustCompile(`^(\d+)x(\d+)@(\d+)$`)

// Mode is a video mode, such as 1920x1080@60.
type Mode struct {
	Width   int64 `json:"width"`
	Height  int64 `json:"height"`
	Refresh int64 `json:"refresh"`
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%d", m.Width, m.Height, m.Refresh)
}

// ParseMode parses a mode in its "<width>x<height>@<refresh>" form.
func ParseMode(s string) (Mode, error) {
	match := modeRegexp.FindStringSubmatch(s)
	if match == nil {
		return Mode{}, fmt.Errorf("invalid mode %q, expected <width>x<height>@<refresh>", s)
	}

	var values [3]int64
	for i := range values {
		v, err := strconv.ParseInt(match[i+1], 10, 64)
		if err != nil {
			return Mode{}, fmt.Errorf("unable to parse mode %q: %w", s, err)
		}
		values[i] = v
	}

	return Mode{
		Width:   values[0],
		Height:  values[1],
		Refresh: values[2],
	}, nil
}
