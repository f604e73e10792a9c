package focus

// Preferences are the user's sound settings queried when a phase ends.
type Preferences struct {
	PlayFocusEndSound bool
	PlayBreakEndSound bool
	FocusEndSound     string
	BreakEndSound     string
}

func DefaultPreferences() Preferences {
	return Preferences{PlayFocusEndSound: true, PlayBreakEndSound: true}
}

// Effects dispatches the engine's side effects. Implementations must return
// promptly and must not call back into the Engine; the engine invokes every
// method except Preferences outside its lock.
type Effects interface {
	ShowNotification(title, body string)
	PlaySound(url string)
	// SetBadge surfaces the whole minutes remaining, e.g. in a tray icon.
	SetBadge(minutes int)
	ClearBadge()
	Preferences() Preferences
}

type noEffects struct{}

func (noEffects) ShowNotification(string, string) {}
func (noEffects) PlaySound(string)                {}
func (noEffects) SetBadge(int)                    {}
func (noEffects) ClearBadge()                     {}
func (noEffects) Preferences() Preferences        { return DefaultPreferences() }
