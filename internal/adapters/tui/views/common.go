package views

// ViewState holds the size and status line shared by the browser views.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets the status line
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the status line
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// Messages for view switching
type SwitchToThreadsMsg struct{}

type SwitchToHelpMsg struct{}

// OpenEditorMsg asks the app to open Path at Line; Line 0 opens at the top.
type OpenEditorMsg struct {
	Path string
	Line int
}
