package transfer

// State is a step of the import procedure.
//
//	Idle -> PickerOpen -> Cancelled -> Idle
//	Idle -> PickerOpen -> FileChosen -> DirectoryEnsuring -> Reading -> Writing -> StoreReopening -> Idle
type State int

// Import states.
const (
	StateIdle State = iota
	StatePickerOpen
	StateCancelled
	StateFileChosen
	StateDirectoryEnsuring
	StateReading
	StateWriting
	StateStoreReopening
)

var stateNames = [...]string{ //nolint:gochecknoglobals
	StateIdle:              "idle",
	StatePickerOpen:        "picker_open",
	StateCancelled:         "cancelled",
	StateFileChosen:        "file_chosen",
	StateDirectoryEnsuring: "directory_ensuring",
	StateReading:           "reading",
	StateWriting:           "writing",
	StateStoreReopening:    "store_reopening",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}
