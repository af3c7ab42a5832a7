package lockdown

type VerdictKind int

const (
	Allow VerdictKind = iota
	Deny
	Redirect
)

func (k VerdictKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Verdict is the admission decision for one request. Reason is set for Deny,
// Location for Redirect.
type Verdict struct {
	Kind     VerdictKind
	Reason   error
	Location string
}

func Allowed() Verdict { return Verdict{Kind: Allow} }

func Denied(reason error) Verdict { return Verdict{Kind: Deny, Reason: reason} }

func RedirectTo(location string) Verdict { return Verdict{Kind: Redirect, Location: location} }

func examPath(courseID string) string { return "/exam/" + courseID }

func coursePath(courseID string) string { return "/course/" + courseID }
