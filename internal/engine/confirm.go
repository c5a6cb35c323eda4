package engine

// Prompts shown before destructive operations.
const (
	DeletePrompt = "Delete?"
	ResetPrompt  = "Start a new month? (uncheck everything)"
)

// Confirmer asks the user to accept a prompt.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

var (
	// Confirmed accepts every prompt.
	Confirmed Confirmer = ConfirmFunc(func(string) bool { return true })
	// Declined rejects every prompt.
	Declined Confirmer = ConfirmFunc(func(string) bool { return false })
)
