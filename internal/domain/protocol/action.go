package protocol

// Action represents a Beckn protocol action issued by the BAP
type Action string

const (
	// ActionSearch discovers catalogs across providers
	ActionSearch Action = "search"
	// ActionSelect picks items from a provider's catalog
	ActionSelect Action = "select"
	// ActionInit initializes an order draft with the provider
	ActionInit Action = "init"
	// ActionConfirm confirms an order with the provider
	ActionConfirm Action = "confirm"
	// ActionStatus queries the current order state from the provider
	ActionStatus Action = "status"
	// ActionCancel cancels a confirmed order
	ActionCancel Action = "cancel"
	// ActionUpdate updates a confirmed order
	ActionUpdate Action = "update"
	// ActionSupport requests support contact details
	ActionSupport Action = "support"
	// ActionRating submits a rating for a fulfilled order
	ActionRating Action = "rating"
)

// IsValid returns true if the action is a known protocol action
func (a Action) IsValid() bool {
	switch a {
	case ActionSearch, ActionSelect, ActionInit, ActionConfirm,
		ActionStatus, ActionCancel, ActionUpdate, ActionSupport, ActionRating:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// CallbackAction returns the asynchronous callback name a BPP uses for this
// action (search -> on_search). The orchestrator operates in synchronous
// request/response mode, but provider payloads still carry callback naming.
func (a Action) CallbackAction() string {
	return "on_" + string(a)
}

// OrderState represents the lifecycle state of a platform order
type OrderState string

const (
	// OrderStateCreated indicates the order exists only on the platform side
	OrderStateCreated OrderState = "CREATED"
	// OrderStateSelected indicates items were selected with a provider
	OrderStateSelected OrderState = "SELECTED"
	// OrderStateInitialized indicates the provider holds an order draft
	OrderStateInitialized OrderState = "INITIALIZED"
	// OrderStateConfirmed indicates the provider accepted the booking
	OrderStateConfirmed OrderState = "CONFIRMED"
	// OrderStateCancelled indicates the booking was cancelled
	OrderStateCancelled OrderState = "CANCELLED"
	// OrderStateCompleted indicates the booking was fulfilled
	OrderStateCompleted OrderState = "COMPLETED"
	// OrderStateUpdated indicates a non-terminal modification was applied
	OrderStateUpdated OrderState = "UPDATED"
	// OrderStateUnknown indicates the provider state could not be determined
	OrderStateUnknown OrderState = "UNKNOWN"
)

// String returns the string representation of the order state
func (s OrderState) String() string {
	return string(s)
}
