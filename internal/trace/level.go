package trace

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // only ring dumps after failures
	LevelPhase               // driver + pass boundaries
	LevelDetail              // per-file events
	LevelDebug               // everything, including per-function events
)

var levelNames = names[Level]{"off", "error", "phase", "detail", "debug"}

// finest is the most detailed scope each level lets through.
var finest = [...]Scope{
	LevelPhase:  ScopePass,
	LevelDetail: ScopeFile,
	LevelDebug:  ScopeFunc,
}

func (l Level) String() string { return levelNames.String(l) }

func ParseLevel(s string) (Level, error) {
	return levelNames.Parse("trace level", s, LevelOff)
}

// ShouldEmit reports whether events of scope pass at this level.
// LevelError records nothing live; failures are reported from the ring.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(finest) {
		return false
	}
	return scope != 0 && scope <= finest[l]
}
