package conceptual

type VehicleID string

func (v VehicleID) String() string {
	return string(v)
}

func (v VehicleID) IsEmpty() bool {
	return v == ""
}

type RunID string

func (r RunID) String() string {
	return string(r)
}

func (r RunID) IsEmpty() bool {
	return r == ""
}

type DriverID string

func (d DriverID) String() string {
	return string(d)
}

func (d DriverID) IsEmpty() bool {
	return d == ""
}

// Shift is the working period a driver belongs to, eg. "morning".
// Runs are grouped by the shift of the driver who made them.
type Shift string

// ShiftUnknown is used for runs whose driver has no shift on record.
const ShiftUnknown Shift = "unknown"

func (s Shift) String() string {
	return string(s)
}

func (s Shift) IsEmpty() bool {
	return s == ""
}
