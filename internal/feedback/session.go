package feedback

import (
	"encoding/json"
	"time"

	"github.com/kantine/kantine-web/internal/shared"
)

const (
	errorKey    = "store:error"
	feedbackKey = "store:feedback"
	appKey      = "store:app"
)

// Stores persists the three records in the visitor's session. A nil session
// reads as empty and ignores writes.
type Stores struct {
	ttl time.Duration
}

// NewStores builds a Stores facade. Error and feedback records older than ttl
// read as cleared; ttl <= 0 keeps them until explicitly cleared.
func NewStores(ttl time.Duration) *Stores {
	return &Stores{ttl: ttl}
}

// Error returns the current error record.
func (s *Stores) Error(sess *shared.Session) ErrorState {
	var state ErrorState
	if !load(sess, errorKey, &state) {
		return ErrorState{}
	}
	if expired(state.SetAt, s.ttl) {
		sess.Delete(errorKey)
		return ErrorState{}
	}
	return state
}

// SetError replaces the error record.
func (s *Stores) SetError(sess *shared.Session, message, typ string) {
	var state ErrorState
	state.SetError(message, typ)
	save(sess, errorKey, state)
}

// ClearError empties the error record.
func (s *Stores) ClearError(sess *shared.Session) {
	if sess != nil {
		sess.Delete(errorKey)
	}
}

// Feedback returns the current feedback record.
func (s *Stores) Feedback(sess *shared.Session) FeedbackState {
	var state FeedbackState
	if !load(sess, feedbackKey, &state) {
		return FeedbackState{}
	}
	if expired(state.SetAt, s.ttl) {
		sess.Delete(feedbackKey)
		return FeedbackState{}
	}
	return state
}

// SetFeedback replaces the feedback record.
func (s *Stores) SetFeedback(sess *shared.Session, status, typ, title, message string) {
	var state FeedbackState
	state.SetFeedback(status, typ, title, message)
	save(sess, feedbackKey, state)
}

// ClearFeedback empties the feedback record.
func (s *Stores) ClearFeedback(sess *shared.Session) {
	if sess != nil {
		sess.Delete(feedbackKey)
	}
}

// Take returns the error and feedback records and clears both, so a message
// is rendered exactly once.
func (s *Stores) Take(sess *shared.Session) (ErrorState, FeedbackState) {
	errState := s.Error(sess)
	fbState := s.Feedback(sess)
	s.ClearError(sess)
	s.ClearFeedback(sess)
	return errState, fbState
}

// App returns the persisted app record.
func (s *Stores) App(sess *shared.Session) AppState {
	var state AppState
	load(sess, appKey, &state)
	return state
}

// SaveApp replaces the app record.
func (s *Stores) SaveApp(sess *shared.Session, state AppState) {
	save(sess, appKey, state)
}

func load(sess *shared.Session, key string, dest any) bool {
	if sess == nil {
		return false
	}
	raw := sess.Get(key)
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		sess.Delete(key)
		return false
	}
	return true
}

func save(sess *shared.Session, key string, value any) {
	if sess == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	sess.Set(key, string(data))
}
