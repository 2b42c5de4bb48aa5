package pkg

const (
	HeaderTraceId string = "X-Trace-Id"
)

const (
	TraceId string = "trace_id"
	UserId  string = "user_id"
)

// Direction tags a ledger record relative to the queried user.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)
