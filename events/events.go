package events

// Routing keys on the booking exchange.
const (
	RKBookingCreated   = "booking.created"
	RKBookingConfirmed = "booking.confirmed"
	RKBookingCompleted = "booking.completed"
	RKBookingCancelled = "booking.cancelled"
)

// StatusKey maps a booking status to its routing key.
func StatusKey(status string) string {
	switch status {
	case "Confirmed":
		return RKBookingConfirmed
	case "Completed":
		return RKBookingCompleted
	case "Cancelled":
		return RKBookingCancelled
	}
	return "booking." + status
}

type BookingCreated struct {
	BookingID  string `json:"booking_id"`
	CustomerID string `json:"customer_id"`
	PageID     string `json:"page_id"`
	Day        string `json:"day"`
	Time       string `json:"time"`
	Start      int64  `json:"start"` // unix seconds
	End        int64  `json:"end"`
	TotalPrice string `json:"total_price"`
}

type BookingStatusChanged struct {
	BookingID  string `json:"booking_id"`
	CustomerID string `json:"customer_id"`
	PageID     string `json:"page_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}
