package page

// Level classifies a Notice so hosts can present each failure mode distinctly.
type Level int

const (
	LevelSuccess Level = iota
	LevelInfo
	LevelValidation
	LevelConflict
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelInfo:
		return "info"
	case LevelValidation:
		return "validation"
	case LevelConflict:
		return "conflict"
	default:
		return "error"
	}
}

// Notice is a user-visible outcome.
type Notice struct {
	Level   Level
	Title   string
	Message string
	// Blocking notices must be dismissed before the user continues.
	Blocking  bool
	Retryable bool
	Fields    []FieldError
}

// Notifier presents notices.
type Notifier interface {
	Notify(n Notice)
}

// Confirmer gates destructive actions. Exactly one of onConfirm or
// onCancel runs, possibly later from the host's event loop. onCancel may be nil.
type Confirmer interface {
	Confirm(prompt string, onConfirm, onCancel func())
}

// ChildForm is the sub-form a RelationPanel opens to add or edit a child.
// onConfirm runs only if the user accepts the form.
type ChildForm[C any] interface {
	Open(title string, child C, onConfirm func(C))
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

type autoConfirm struct{}

func (autoConfirm) Confirm(_ string, onConfirm, _ func()) { onConfirm() }

func noticeFor(err *SaveError, what string) Notice {
	switch err.Kind {
	case SaveFailedValidation:
		return Notice{
			Level:     LevelValidation,
			Title:     "Check the highlighted fields",
			Message:   "Correct the values and save again.",
			Retryable: true,
			Fields:    err.Fields,
		}
	case SaveFailedConflict:
		return Notice{
			Level:    LevelConflict,
			Title:    "Someone else changed this " + what,
			Message:  "Your copy is out of date. Cancel to reload the latest version.",
			Blocking: true,
		}
	default:
		return Notice{
			Level:    LevelError,
			Title:    "Could not save " + what,
			Message:  err.Error(),
			Blocking: true,
		}
	}
}
