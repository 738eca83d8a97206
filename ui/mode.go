package ui

// DisplayMode selects how the viewer shows output lines.
type DisplayMode int

const (
	// DisplayRendered shows a readable summary of each JSON message.
	DisplayRendered DisplayMode = iota
	// DisplayRaw shows lines exactly as the tool printed them.
	DisplayRaw
)

func (m DisplayMode) String() string {
	switch m {
	case DisplayRaw:
		return "raw"
	default:
		return "rendered"
	}
}

func (m DisplayMode) Toggle() DisplayMode {
	if m == DisplayRaw {
		return DisplayRendered
	}
	return DisplayRaw
}
