package shelf

import (
	"strconv"
	"strings"
)

// AspectRatio of a shelf's images, width:height.
type AspectRatio struct {
	Width  int
	Height int
}

// DefaultAspectRatio is used when the playlist carries none or an unusable one.
var DefaultAspectRatio = AspectRatio{Width: 16, Height: 9}

var supportedAspectRatios = map[AspectRatio]bool{
	{1, 1}:  true,
	{2, 1}:  true,
	{2, 3}:  true,
	{4, 3}:  true,
	{5, 3}:  true,
	{16, 9}: true,
	{9, 13}: true,
	{9, 16}: true,
}

func (a AspectRatio) String() string {
	return strconv.Itoa(a.Width) + ":" + strconv.Itoa(a.Height)
}

// ParseAspectRatio parses "W:H". Unsupported or unparsable values return
// DefaultAspectRatio and a MalformedMetadata error; an empty value returns
// the default without error.
func ParseAspectRatio(value string) (AspectRatio, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultAspectRatio, nil
	}
	w, h, ok := strings.Cut(value, ":")
	if !ok {
		return DefaultAspectRatio, malformedAspect(value)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return DefaultAspectRatio, malformedAspect(value)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return DefaultAspectRatio, malformedAspect(value)
	}
	a := AspectRatio{Width: width, Height: height}
	if !supportedAspectRatios[a] {
		return DefaultAspectRatio, malformedAspect(value)
	}
	return a, nil
}

func malformedAspect(value string) error {
	return WrapError(CodeMalformedMetadata, "unsupported shelfImageAspectRatio", map[string]string{"value": value}, nil)
}

// TilesDelta is the number of extra tiles a row shows at once for aspect.
// Portrait and square images fit more per row, landscape ones do not.
func TilesDelta(a AspectRatio) int {
	if a.Width <= 0 {
		return 0
	}
	return a.Height / a.Width
}
