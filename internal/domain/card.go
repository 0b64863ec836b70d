package domain

// Outcome records a participant's last recall result for a card.
type Outcome int

const (
	OutcomeUnanswered Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnanswered:
		return "unanswered"
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

// Card is a single question/answer pair with its proficiency state.
// Tier starts at 1 and never drops below 1; only round rollover changes it.
type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Tier     int    `json:"tier"`
	Outcome  Outcome `json:"-"`
}

// NewCard builds a card at the given tier, defaulting to tier 1.
func NewCard(question, answer string, tier int) Card {
	if tier < 1 {
		tier = 1
	}
	return Card{Question: question, Answer: answer, Tier: tier, Outcome: OutcomeUnanswered}
}

// CardEntry is the ingestion form of a card as supplied by collaborators.
// Tier zero means "use the default tier".
type CardEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Tier     int    `json:"tier,omitempty"`
}

// Validate reports why an entry cannot become a card, or nil.
func (e CardEntry) Validate() error {
	if e.Question == "" {
		return ErrMissingQuestion
	}
	if e.Answer == "" {
		return ErrMissingAnswer
	}
	if e.Tier < 0 {
		return ErrInvalidTier
	}
	return nil
}
