// Package session selects which card a study session shows next.
//
// A session blends due reviews with cards from weak topical tags and new
// material according to configurable weights. A failure streak is
// interrupted with a well-known "confidence recovery" card.
//
// # Usage
//
//	st, err := session.NewState(session.Config{TargetCards: 20}, cards, reviews, time.Now())
//	for {
//	    sel, ok := st.SelectNext()
//	    if !ok {
//	        break
//	    }
//	    // show sel.Card, collect a grade ...
//	    st = st.Apply(session.ReviewResult{CardID: sel.Card.ID, Grade: g, TimeMs: ms, Recovery: sel.Recovery})
//	}
//	summary := session.Summarize(st)
//
// # State
//
// State is a value. Apply returns a new State and never mutates its receiver,
// so a caller can keep earlier states for replay. A State must still be driven
// by a single session loop; nothing here synchronizes concurrent callers.
package session
