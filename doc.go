// Package vocab implements the review scheduler of a vocabulary flashcard
// application: an SM-2 style function that turns a card's memory-strength
// state and a recall grade into the card's next state.
//
// The adaptive study-session engine that decides which card to show next
// lives in the vocab/session subpackage.
//
// Basic usage:
//
//	s, err := vocab.NewScheduler(vocab.SchedulerConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	card := vocab.NewCard("der Hund", "the dog", "animals")
//	card, log := s.ReviewCard(card, vocab.Good, 2400*time.Millisecond)
package vocab
