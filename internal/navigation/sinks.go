package navigation

import (
	"context"
	"time"
)

// Navigator performs the actual jump.
type Navigator interface {
	Navigate(ctx context.Context, loc Location) error
}

// NoticeKind distinguishes the two user-facing messages of a request.
type NoticeKind int

const (
	// NoticeNothingFound means there is definitely no declaration.
	NoticeNothingFound NoticeKind = iota
	// NoticeAnalysisNotReady means the answer is not known yet.
	NoticeAnalysisNotReady
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeNothingFound:
		return "nothing-found"
	case NoticeAnalysisNotReady:
		return "analysis-not-ready"
	default:
		return "unknown"
	}
}

// Notice is a plain-text message for the user.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notifier shows notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Event names recorded by a Session.
const (
	EventFeatureUsed = "navigation.goto.declaration.only"
	EventNavigated   = "navigation.goto.declaration.navigated"
)

// EventContext identifies the request an event belongs to.
type EventContext struct {
	RequestID string
	Action    string
	Path      string
	Offset    int
	Started   time.Time
}

// Event is one telemetry record. Provider is empty for events that are not
// attributed to a provider.
type Event struct {
	Name     string
	Context  EventContext
	Provider string
}

// Telemetry records events. Failures are reported to the caller, who must
// not let them change a request's result.
type Telemetry interface {
	Record(ctx context.Context, e Event) error
}

// Progress runs a blocking unit of work while the user can see that
// something is happening and can interrupt it.
type Progress interface {
	Run(ctx context.Context, title string, fn func(ctx context.Context) error) error
}
