package notify

import (
	"fmt"
	"strconv"
)

// Event is one "new order awaiting your decision" message for the selling
// employee. It carries the same display snapshot the pending decision holds,
// so delivery needs no further lookups.
type Event struct {
	EventID       string `json:"event_id"`
	OrderID       uint   `json:"order_id"`
	OrderNo       string `json:"order_no"`
	EmployeeID    int64  `json:"employee_id"`
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

// Validate does minimal field checks so the relay and worker never process
// dirty messages.
func (e Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if e.EmployeeID <= 0 {
		return fmt.Errorf("employee_id is required")
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	return nil
}

// streamFields flattens the event for XADD.
func (e Event) streamFields() map[string]any {
	return map[string]any{
		"event_id":       e.EventID,
		"order_id":       strconv.FormatUint(uint64(e.OrderID), 10),
		"order_no":       e.OrderNo,
		"employee_id":    strconv.FormatInt(e.EmployeeID, 10),
		"item_name":      e.ItemName,
		"quantity":       strconv.Itoa(e.Quantity),
		"customer_name":  e.CustomerName,
		"customer_email": e.CustomerEmail,
	}
}

// parseEvent rebuilds an Event from stream field values.
func parseEvent(values map[string]interface{}) (Event, error) {
	eventID, err := getStreamString(values, "event_id")
	if err != nil {
		return Event{}, err
	}
	orderStr, err := getStreamString(values, "order_id")
	if err != nil {
		return Event{}, err
	}
	orderNo, err := getStreamString(values, "order_no")
	if err != nil {
		return Event{}, err
	}
	employeeStr, err := getStreamString(values, "employee_id")
	if err != nil {
		return Event{}, err
	}
	quantityStr, err := getStreamString(values, "quantity")
	if err != nil {
		return Event{}, err
	}
	itemName, _ := getStreamString(values, "item_name")
	customerName, _ := getStreamString(values, "customer_name")
	customerEmail, _ := getStreamString(values, "customer_email")

	orderID64, err := strconv.ParseUint(orderStr, 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("invalid order_id %q", orderStr)
	}
	employeeID, err := strconv.ParseInt(employeeStr, 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("invalid employee_id %q", employeeStr)
	}
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		return Event{}, fmt.Errorf("invalid quantity %q", quantityStr)
	}

	ev := Event{
		EventID:       eventID,
		OrderID:       uint(orderID64),
		OrderNo:       orderNo,
		EmployeeID:    employeeID,
		ItemName:      itemName,
		Quantity:      quantity,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func getStreamString(values map[string]interface{}, key string) (string, error) {
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing field %s", key)
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatInt(int64(x), 10), nil
	default:
		return "", fmt.Errorf("unsupported field type %s: %T", key, v)
	}
}
