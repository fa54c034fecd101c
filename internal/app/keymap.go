package app

// Key binding constants used in handleKey.
const (
	KeyQuit        = "q"
	KeyCtrlC       = "ctrl+c"
	KeySuspend     = "ctrl+z"
	KeyTab         = "tab"
	KeyShiftTab    = "shift+tab"
	KeyPrevSubject = "["
	KeyNextSubject = "]"
	KeyEnter       = "enter"
	KeyEsc         = "esc"

	// Timer tab
	KeyStartPause = " "
	KeyResume     = "c"
	KeyReset      = "x"
	KeySkip       = "n"
	KeyEditNote   = "e"
	KeyEditWork   = "w"
	KeyEditShort  = "s"
	KeyEditLong   = "l"

	// Todo tab
	KeyAddTask        = "a"
	KeyDown           = "j"
	KeyUp             = "k"
	KeyArrowDown      = "down"
	KeyArrowUp        = "up"
	KeyCompleteTask   = "d"
	KeyDeleteTask     = "D"
	KeyClearCompleted = "C"

	// Stats tab
	KeyCyclePeriod = "f"
)
