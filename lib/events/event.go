// Package events implements the process-wide event queue fed by OS
// hotplug notifications and drained cooperatively by families (spec
// §4.9 "Event queue").
package events

// Kind discriminates the Event variants. Only Device exists today; the
// spec reserves room for future expansion.
type Kind int

const (
	KindDevice Kind = iota
)

// Action is the device hotplug action.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
	ActionChange
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionChange:
		return "change"
	default:
		return "unknown"
	}
}

// DeviceEvent is the "device {name, type, action}" variant (spec §4.9).
type DeviceEvent struct {
	Name   string
	Type   string
	Action Action
}

// Event is one entry in the queue. Producers allocate an Event and hand
// ownership to Queue.Add; the queue (and ultimately the consumer that
// returns family.Success) is responsible for letting it go.
type Event struct {
	Kind   Kind
	Device *DeviceEvent
}

// NewDeviceEvent builds a device-kind Event.
func NewDeviceEvent(name, typ string, action Action) *Event {
	return &Event{Kind: KindDevice, Device: &DeviceEvent{Name: name, Type: typ, Action: action}}
}
