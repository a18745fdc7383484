package character

// State is the lifecycle state of a Character.
type State uint8

const (
	// StateUnopened is the zero value; nothing has been read.
	StateUnopened State = iota
	// StateOpen means the header was validated but the sections are not decoded.
	StateOpen
	// StateParsed means every section is decoded and nothing changed since.
	StateParsed
	// StateModified means a mutation happened since the last parse or save.
	StateModified
	// StateSaved means the current model was written to disk.
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "Unopened"
	case StateOpen:
		return "Open"
	case StateParsed:
		return "Parsed"
	case StateModified:
		return "Modified"
	case StateSaved:
		return "Saved"
	default:
		return "Unknown"
	}
}

// decoded reports whether the sections are available.
func (s State) decoded() bool {
	return s >= StateParsed
}
