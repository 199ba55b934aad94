package components

import "github.com/kantine/kantine-web/internal/feedback"

// Notice is a rendered error or feedback message.
type Notice struct {
	// Kind is "error" or "success" and drives the colour.
	Kind    string
	Type    string
	Title   string
	Message string
}

// Template implements Component. The partial depends on the presentation type.
func (n Notice) Template() string {
	switch n.Type {
	case feedback.TypeBanner:
		return "components/banner"
	case feedback.TypeDialog:
		return "components/dialog"
	}
	return "components/snackbar"
}

// Notices turns the visible store records into renderable notices, error first.
func Notices(errState feedback.ErrorState, fb feedback.FeedbackState) []Notice {
	var out []Notice
	if errState.Show && errState.Message != "" {
		out = append(out, Notice{
			Kind:    feedback.StatusError,
			Type:    orSnackbar(errState.Type),
			Message: errState.Message,
		})
	}
	if fb.Show {
		kind := fb.Status
		if kind == "" {
			kind = feedback.StatusSuccess
		}
		out = append(out, Notice{
			Kind:    kind,
			Type:    orSnackbar(fb.Type),
			Title:   fb.Title,
			Message: fb.Message,
		})
	}
	return out
}

func orSnackbar(typ string) string {
	if typ == "" {
		return feedback.TypeSnackbar
	}
	return typ
}
