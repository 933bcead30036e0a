package orders

type Status string

const (
	StatusUnplaced  Status = ""
	StatusSuccess   Status = "Success"
	StatusCancelled Status = "Cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusUnplaced:  {StatusSuccess: true},
	StatusSuccess:   {StatusCancelled: true},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
