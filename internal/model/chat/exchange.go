package chat

// Exchange is the result of one completed user submission: the session the
// turns were recorded under and the generated reply.
type Exchange struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
}
