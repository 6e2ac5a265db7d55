package registration

// Transition is the pure state transition function. It performs no I/O
// and never fails; an event that is not valid in the current state
// returns the state unchanged.
//
// Guard evaluation in Validating is ordered: the new top-level account
// guard is checked before the new app-scoped account guard, and a run
// that passes neither is rejected as an existing registration. The
// app-scoped guard additionally requires a non-empty app ID; without it a
// re-submitted top-level registration would be misread as a request for
// an app account.
func Transition(state State, event Event) State {
	switch s := state.(type) {
	case Idle:
		if ev, ok := event.(Register); ok {
			return FetchingLogins{Req: ev.Req}
		}

	case FetchingLogins:
		switch ev := event.(type) {
		case LookupSucceeded:
			return Validating{
				Req:             s.Req,
				Registered:      ev.Registered,
				RegisteredInApp: ev.RegisteredInApp,
			}
		case LookupFailed:
			return Errored{Message: MsgLookupFailed}
		}

	case Validating:
		if _, ok := event.(Validated); ok {
			switch {
			case !s.Registered && !s.RegisteredInApp:
				return RegisteringAccount{Req: s.Req}
			case s.Registered && !s.RegisteredInApp && s.Req.HasAppID():
				return RegisteringAppAccount{Req: s.Req}
			default:
				return Errored{Message: MsgAlreadyRegistered}
			}
		}

	case RegisteringAccount:
		switch event.(type) {
		case InsertSucceeded:
			if s.Req.HasAppID() {
				return RegisteringAppAccount{Req: s.Req}
			}
			return Registered{}
		case InsertFailed:
			return Errored{Message: MsgAccountInsertFailed}
		}

	case RegisteringAppAccount:
		switch event.(type) {
		case InsertSucceeded:
			return Registered{}
		case InsertFailed:
			return Errored{Message: MsgAppAccountInsertFailed}
		}

	case Registered, Errored:
		// Terminal states accept no events.
	}

	return state
}

// Terminal reports whether the state accepts no further events.
func Terminal(state State) bool {
	switch state.(type) {
	case Registered, Errored:
		return true
	default:
		return false
	}
}
