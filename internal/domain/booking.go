package domain

import (
	"time"

	"github.com/m04kA/SMC-DispatchService/pkg/types"
)

// BookingStatus represents the status of a booking.
// Values are kept in Portuguese: they are the wire/storage vocabulary
// of the product and appear as-is in reports and the operator UI.
type BookingStatus string

const (
	StatusDraft     BookingStatus = "Rascunho"   // no date/agent yet, finalized later
	StatusPending   BookingStatus = "Pendente"   // awaiting prepaid debit confirmation
	StatusConfirmed BookingStatus = "Confirmado" // scheduled and (for prepaid) paid
	StatusPerformed BookingStatus = "Realizado"  // session performed on site
	StatusCompleted BookingStatus = "Concluído"  // material delivered, terminal
	StatusCancelled BookingStatus = "Cancelado"  // terminal
)

// AllowedTransitions represents the booking state flow as code.
// Cancelado is reachable from every non-terminal state.
var AllowedTransitions = map[BookingStatus][]BookingStatus{
	StatusDraft:     {StatusPending, StatusConfirmed, StatusCancelled},
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPerformed, StatusCancelled},
	StatusPerformed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from → to is a legal status transition.
func CanTransition(from, to BookingStatus) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status freezes the booking.
// Financial fields of a terminal booking are immutable except
// for the paid-to-agent bookkeeping flag.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ValidStatuses lists every status accepted from external callers.
var ValidStatuses = []BookingStatus{
	StatusDraft,
	StatusPending,
	StatusConfirmed,
	StatusPerformed,
	StatusCompleted,
	StatusCancelled,
}

// HistoryActor identifies who performed a booking mutation.
type HistoryActor string

const (
	ActorClient  HistoryActor = "client"
	ActorAgent   HistoryActor = "agent"
	ActorManager HistoryActor = "manager"
	ActorSystem  HistoryActor = "system"
)

// HistoryEntry is one immutable line of the booking audit log.
// Entries are append-only and never rewritten or pruned.
type HistoryEntry struct {
	At    time.Time
	Actor HistoryActor
	Note  string
}

// Booking represents an on-site photography session booking.
type Booking struct {
	ID       int64
	ClientID int64
	AgentID  *int64 // nil until assigned, and always nil for drafts

	ServiceIDs []string // includes pass-through fee pseudo-services

	Date            *time.Time       // nil for drafts
	StartTime       types.TimeString // zero for drafts
	DurationMinutes int

	Address string
	Coords  Coordinates

	Status BookingStatus

	TotalPrice     float64
	DiscountAmount float64
	CouponCode     *string
	AgentPayout    float64
	TipAmount      float64
	PaidToAgent    bool

	// Flags
	Flash              bool // immediate dispatch, nearest feasible agent today
	AccompaniedViewing bool
	KeyPickup          bool // proximity is measured to the client's address

	MaterialRefs []string // delivered material references, set on completion

	History []HistoryEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndTime derives the end of the session from start time and duration.
// Invariant: end = start + sum(service durations) whenever both are set.
func (b *Booking) EndTime() (types.TimeString, error) {
	return b.StartTime.AddMinutes(b.DurationMinutes)
}

// IsDraft reports whether the booking is an unfinalized draft.
func (b *Booking) IsDraft() bool {
	return b.Status == StatusDraft
}

// IsActive reports whether the booking occupies its agent's schedule.
// Cancelled bookings never conflict with new requests.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// HasSchedule reports whether both date and start time are set.
func (b *Booking) HasSchedule() bool {
	return b.Date != nil && !b.StartTime.IsZero()
}

// AppendHistory adds an immutable audit entry.
func (b *Booking) AppendHistory(at time.Time, actor HistoryActor, note string) {
	b.History = append(b.History, HistoryEntry{At: at, Actor: actor, Note: note})
}

// AgentBookingsFilter filters an agent's bookings.
type AgentBookingsFilter struct {
	AgentID    int64
	Date       *time.Time     // single date, nil = any
	Status     *BookingStatus // nil = any
	ActiveOnly bool           // exclude Cancelado
	ExcludeID  *int64         // skip one booking (conflict checks against itself)
}

// ClientBookingsFilter filters a client's booking history.
type ClientBookingsFilter struct {
	ClientID int64
	Status   *BookingStatus
}
