package tasks

// Outcome is the result of a mutation that succeeded or found its target state already in place.
//
// Informational outcomes ([OutcomeAlreadyExists], [OutcomeNotPresent], [OutcomeAlreadyLiked]) are not errors.
type Outcome int

const (
	OutcomeAdded Outcome = iota + 1
	OutcomeAlreadyExists
	OutcomeRemoved
	OutcomeNotPresent
	OutcomeLiked
	OutcomeAlreadyLiked
	OutcomeUnliked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeAlreadyExists:
		return "already_exists"
	case OutcomeRemoved:
		return "removed"
	case OutcomeNotPresent:
		return "not_present"
	case OutcomeLiked:
		return "liked"
	case OutcomeAlreadyLiked:
		return "already_liked"
	case OutcomeUnliked:
		return "unliked"
	default:
		return ""
	}
}

// Informational reports whether the requested state already held and nothing was written.
func (o Outcome) Informational() bool {
	switch o {
	case OutcomeAlreadyExists, OutcomeNotPresent, OutcomeAlreadyLiked:
		return true
	default:
		return false
	}
}

// Message is the notice shown to the user.
func (o Outcome) Message() string {
	switch o {
	case OutcomeAdded:
		return "Song added to playlist!"
	case OutcomeAlreadyExists:
		return "Song already in playlist"
	case OutcomeRemoved:
		return "Song removed from playlist"
	case OutcomeNotPresent:
		return "Nothing to remove"
	case OutcomeLiked:
		return "Added to liked songs!"
	case OutcomeAlreadyLiked:
		return "Song already liked!"
	case OutcomeUnliked:
		return "Removed from liked songs"
	default:
		return ""
	}
}
