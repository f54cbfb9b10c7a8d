package queue_publisher

import (
	"context"
	"time"

	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/queue"
)

// CheckInAuditor forwards committed check-ins to the message broker.
// Publishing happens in its own goroutine so a slow or unreachable
// broker never delays the engine's commit path; a lost audit message
// is logged by the publisher and tolerated.
type CheckInAuditor struct{}

// GuestCheckedIn satisfies the engine's auditor hook.
func (CheckInAuditor) GuestCheckedIn(ctx context.Context, event model.Event, guest model.Guest, tableLabel *string) {
	checkedInAt := ""
	if guest.CheckedInAt != nil {
		checkedInAt = guest.CheckedInAt.UTC().Format(time.RFC3339)
	}
	ev := queue.CheckInEvent{
		EventID:     event.ID,
		EventName:   event.Name,
		PublicCode:  event.PublicCode,
		GuestID:     guest.ID,
		GuestName:   guest.Name,
		TableLabel:  tableLabel,
		Dietary:     guest.Dietary,
		CheckedInAt: checkedInAt,
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = PublishCheckIn(pubCtx, ev)
	}()
}
