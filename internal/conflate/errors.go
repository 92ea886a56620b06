package conflate

import "github.com/rotisserie/eris"

// Configuration errors. All are fatal to a run.
var (
	ErrNoReferenceData = eris.New("conflate: no reference data for comparison")
	ErrNoCandidateData = eris.New("conflate: no candidate data for comparison")
	ErrNoMatches       = eris.New("conflate: no matches found")
)
