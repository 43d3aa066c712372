// ABOUTME: Route guard mapping session state to a renderable outcome
// ABOUTME: Pure function; consumers re-evaluate on every state publication

package auth

// Decision is the route guard outcome for a given session state.
type Decision int

const (
	// DecisionLoading renders a neutral waiting view; the startup check has
	// not resolved and no privilege decision may be made.
	DecisionLoading Decision = iota
	// DecisionRedirectToSignIn sends the visitor to the sign-in view.
	DecisionRedirectToSignIn
	// DecisionContent renders the privileged view for the attached identity.
	DecisionContent
)

// String returns a human-readable decision name.
func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirectToSignIn:
		return "redirect-to-sign-in"
	case DecisionContent:
		return "content"
	default:
		return "unknown"
	}
}

// GuardResult is the evaluated outcome. Identity is set only for
// DecisionContent.
type GuardResult struct {
	Decision Decision
	Identity *AdminIdentity
}

// Evaluate maps a session state to its renderable outcome. Initializing must
// never show the privileged view nor the denied view, only a waiting state.
func Evaluate(state SessionState) GuardResult {
	switch state.Status {
	case StateAuthenticated:
		return GuardResult{Decision: DecisionContent, Identity: state.Identity}
	case StateUnauthenticated:
		return GuardResult{Decision: DecisionRedirectToSignIn}
	default:
		return GuardResult{Decision: DecisionLoading}
	}
}
