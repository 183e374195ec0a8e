package orders

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusValidated Status = "VALIDATED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusValidated: true},
	StatusValidated: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal statuses freeze the order: consumed stock is permanent and lines
// may no longer change.
func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}
